package embedder

import (
	"context"
	"errors"
	"fmt"

	"embedpipe/internal/chunker"
)

// embedBatchSize caps how many chunks go into a single embeddings request.
const embedBatchSize = 100

// ErrEmptyDocument is returned when a document tokenizes to zero chunks.
var ErrEmptyDocument = errors.New("document has no content to embed")

// TokenEmbedder obtains one vector per token-id group, in input order.
type TokenEmbedder interface {
	EmbedTokens(ctx context.Context, groups [][]int) ([][]float32, error)
}

// Options selects how a document embedding is assembled.
type Options struct {
	// Combine computes the token-count-weighted average of the chunk
	// vectors into a single document vector.
	Combine bool

	// Normalize rescales the combined vector to unit Euclidean norm.
	// Without it the combined vector keeps the service's raw scale; cosine
	// similarity is unaffected either way, but consumers that dot-product
	// against unit vectors need it. Only meaningful with Combine.
	Normalize bool
}

// ChunkVector pairs one chunk with its embedding vector.
type ChunkVector struct {
	Index      int
	Text       string
	TokenCount int
	Vector     []float32
}

// DocumentEmbedding is the result of embedding one document.
type DocumentEmbedding struct {
	// Chunks holds one entry per chunk in source order.
	Chunks []ChunkVector

	// Combined is the weighted-average document vector. Nil unless
	// Options.Combine was set.
	Combined []float32

	// TotalTokens is the token count across all chunks.
	TotalTokens int
}

// DocumentEmbedder splits documents into token-bounded chunks and obtains
// one embedding vector per chunk from the embedding service.
type DocumentEmbedder struct {
	splitter *chunker.Splitter
	client   TokenEmbedder
}

// New creates a document embedder over the given splitter and client.
func New(splitter *chunker.Splitter, client TokenEmbedder) *DocumentEmbedder {
	return &DocumentEmbedder{splitter: splitter, client: client}
}

// EmbedDocument embeds text chunk by chunk. Chunk order and vector order
// correspond index for index. Any chunk-level failure aborts the whole
// document; a partial chunk set cannot be safely averaged.
func (e *DocumentEmbedder) EmbedDocument(ctx context.Context, text string, opts Options) (*DocumentEmbedding, error) {
	chunks, err := e.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	groups := make([][]int, len(chunks))
	for i, chunk := range chunks {
		groups[i] = chunk.Tokens
	}

	vectors := make([][]float32, 0, len(groups))
	for start := 0; start < len(groups); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(groups) {
			end = len(groups)
		}

		batch, err := e.client.EmbedTokens(ctx, groups[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d..%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed chunks %d..%d: got %d vectors for %d chunks",
				start, end-1, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	result := &DocumentEmbedding{
		Chunks: make([]ChunkVector, len(chunks)),
	}
	tokenCounts := make([]int, len(chunks))
	for i, chunk := range chunks {
		result.Chunks[i] = ChunkVector{
			Index:      chunk.Index,
			Text:       chunk.Text,
			TokenCount: chunk.TokenCount,
			Vector:     vectors[i],
		}
		tokenCounts[i] = chunk.TokenCount
		result.TotalTokens += chunk.TokenCount
	}

	if opts.Combine {
		combined, err := WeightedAverage(vectors, tokenCounts)
		if err != nil {
			return nil, err
		}
		if opts.Normalize {
			combined = Normalize(combined)
		}
		result.Combined = combined
	}

	return result, nil
}

// EmbedText embeds a short text, such as a title or a search query, into a
// single vector. Texts longer than the chunk limit are split and combined by
// weighted average; a single-chunk text returns its chunk vector unchanged.
func (e *DocumentEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	doc, err := e.EmbedDocument(ctx, text, Options{Combine: true})
	if err != nil {
		return nil, err
	}
	return doc.Combined, nil
}

// MaxTokens exposes the chunk limit the embedder splits with.
func (e *DocumentEmbedder) MaxTokens() int {
	return e.splitter.MaxTokens()
}
