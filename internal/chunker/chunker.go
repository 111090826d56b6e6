package chunker

import (
	"errors"
	"fmt"

	"embedpipe/internal/tokenizer"
)

// ErrInvalidMaxTokens is returned when a splitter is constructed with a
// non-positive token limit.
var ErrInvalidMaxTokens = errors.New("max tokens must be at least 1")

// Chunk is a contiguous, bounded-length token window of a document, in
// source order. Text is the window's decoded text.
type Chunk struct {
	Index      int    // position within the document, starts at 0
	Tokens     []int  // token ids, at most the splitter's max
	Text       string // decoded text of Tokens
	TokenCount int    // len(Tokens)
}

// Splitter partitions text into consecutive, non-overlapping token windows
// bounded by an embedding model's input limit. The partition is a pure
// function of (text, max tokens, encoding): splitting the same text twice
// yields identical chunk sequences.
type Splitter struct {
	codec     tokenizer.Codec
	maxTokens int
}

// New creates a Splitter that produces windows of at most maxTokens tokens
// under the given codec. maxTokens below 1 fails with ErrInvalidMaxTokens.
func New(codec tokenizer.Codec, maxTokens int) (*Splitter, error) {
	if maxTokens < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxTokens, maxTokens)
	}
	return &Splitter{codec: codec, maxTokens: maxTokens}, nil
}

// MaxTokens returns the configured window limit.
func (s *Splitter) MaxTokens() int {
	return s.maxTokens
}

// Codec returns the codec the splitter encodes and decodes with.
func (s *Splitter) Codec() tokenizer.Codec {
	return s.codec
}

// Split encodes text and partitions the token sequence into chunks.
// Every chunk except possibly the last holds exactly maxTokens tokens; the
// last holds between 1 and maxTokens. Concatenating the chunks' token
// sequences in order reproduces the full encoding of text exactly. Empty
// text yields zero chunks.
//
// Decoding a window can fail with tokenizer.ErrMalformedTokens when a
// window boundary lands inside a multi-byte rune; that surfaces as an error
// for the whole split rather than a silently dropped chunk.
func (s *Splitter) Split(text string) ([]Chunk, error) {
	if text == "" {
		return nil, nil
	}

	ids := s.codec.Encode(text)
	groups := s.SplitTokens(ids)

	chunks := make([]Chunk, 0, len(groups))
	for i, group := range groups {
		decoded, err := s.codec.Decode(group)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{
			Index:      i,
			Tokens:     group,
			Text:       decoded,
			TokenCount: len(group),
		})
	}
	return chunks, nil
}

// SplitTokens partitions an already-encoded token sequence into windows of
// at most maxTokens ids, preserving order. The returned groups share backing
// storage with ids. An empty sequence yields zero groups.
func (s *Splitter) SplitTokens(ids []int) [][]int {
	if len(ids) == 0 {
		return nil
	}

	groups := make([][]int, 0, (len(ids)+s.maxTokens-1)/s.maxTokens)
	for start := 0; start < len(ids); start += s.maxTokens {
		end := start + s.maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		groups = append(groups, ids[start:end])
	}
	return groups
}
