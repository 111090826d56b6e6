package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // expected vector size for validation

	transport *transport
}

// NewEmbeddingsClient creates a new embeddings client. expectedSize is the
// vector dimensionality the model produces (from VECTOR_SIZE config); every
// embedding returned by the client is validated against it.
func NewEmbeddingsClient(cfg Config, model string, expectedSize int) *EmbeddingsClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		transport:    newTransport(cfg),
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
// Input is either []string or [][]int; the service treats a token-id group
// exactly like the text it decodes to.
type EmbeddingsRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data  []EmbeddingData `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedTexts generates one embedding per input text, in input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrBadRequest)
	}
	return c.embed(ctx, texts, len(texts))
}

// EmbedTokens generates one embedding per token-id group, in input order.
// Callers that already hold token windows skip the decode round-trip; for
// identical token sequences the service request matches the text path.
func (c *EmbeddingsClient) EmbedTokens(ctx context.Context, groups [][]int) ([][]float32, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrBadRequest)
	}
	return c.embed(ctx, groups, len(groups))
}

func (c *EmbeddingsClient) embed(ctx context.Context, input any, n int) ([][]float32, error) {
	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: input,
	}

	raw, err := c.transport.postJSON(ctx, c.BaseURL+"/v1/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var parsed EmbeddingsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, newDecodeError(err)
	}

	if len(parsed.Data) != n {
		return nil, newDecodeError(fmt.Errorf("expected %d embeddings, got %d", n, len(parsed.Data)))
	}

	// Convert to float32 and restore input order by response index.
	result := make([][]float32, n)
	for _, data := range parsed.Data {
		if data.Index < 0 || data.Index >= n {
			return nil, newDecodeError(fmt.Errorf("embedding index %d out of range", data.Index))
		}
		if len(data.Embedding) != c.ExpectedSize {
			return nil, newDecodeError(fmt.Errorf("embedding %d has size %d, expected %d",
				data.Index, len(data.Embedding), c.ExpectedSize))
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[data.Index] = vec
	}

	for i, vec := range result {
		if vec == nil {
			return nil, newDecodeError(fmt.Errorf("missing embedding for input %d", i))
		}
	}

	return result, nil
}
