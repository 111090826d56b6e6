package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client is a client for an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	Model   string

	transport *transport
}

// NewClient creates a new chat completions client.
func NewClient(cfg Config, model string) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   baseURL,
		Model:     model,
		transport: newTransport(cfg),
	}
}

// ChatMessage represents a single role-tagged message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Chat sends an ordered list of role-tagged messages and returns the first
// choice's completion text.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", ErrBadRequest)
	}

	payload := ChatRequest{
		Model:    c.Model,
		Messages: messages,
	}

	raw, err := c.transport.postJSON(ctx, c.BaseURL+"/v1/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", newDecodeError(err)
	}

	if len(parsed.Choices) == 0 {
		return "", newDecodeError(errors.New("no choices returned"))
	}

	return parsed.Choices[0].Message.Content, nil
}
