package tokenizer

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the byte-pair encoding used when none is configured.
// It matches the encoding of the OpenAI embedding model family this service
// targets.
const DefaultEncoding = "cl100k_base"

var (
	// ErrUnknownEncoding is returned when the requested encoding name is not
	// a known tiktoken encoding. This is a caller error and is never retried.
	ErrUnknownEncoding = errors.New("unknown token encoding")

	// ErrMalformedTokens is returned when a token sequence does not decode to
	// valid UTF-8 text. Callers must treat this as fatal for the affected
	// chunk rather than silently dropping it.
	ErrMalformedTokens = errors.New("token sequence does not decode to valid UTF-8")
)

// Codec deterministically maps text to a token-id sequence and back.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode converts text into its token-id sequence. Empty text yields an
	// empty sequence.
	Encode(text string) []int

	// Decode converts a token-id sequence back into text. It returns
	// ErrMalformedTokens if the ids do not decode to valid UTF-8, which can
	// happen when a multi-byte rune is split across token groups.
	Decode(ids []int) (string, error)

	// EncodingName returns the name of the underlying encoding
	// (e.g. "cl100k_base").
	EncodingName() string
}

// bpeCodec wraps a tiktoken BPE encoding.
type bpeCodec struct {
	name string
	tk   *tiktoken.Tiktoken
}

// Get returns the Codec for a named tiktoken encoding.
// An unknown name fails fast with ErrUnknownEncoding.
func Get(name string) (Codec, error) {
	if name == "" {
		name = DefaultEncoding
	}
	tk, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownEncoding, name, err)
	}
	return &bpeCodec{name: name, tk: tk}, nil
}

// Encode converts text into its token-id sequence.
func (c *bpeCodec) Encode(text string) []int {
	return c.tk.Encode(text, nil, nil)
}

// Decode converts a token-id sequence back into text.
func (c *bpeCodec) Decode(ids []int) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	text := c.tk.Decode(ids)
	if !utf8.ValidString(text) {
		return "", ErrMalformedTokens
	}
	return text, nil
}

// EncodingName returns the name of the underlying encoding.
func (c *bpeCodec) EncodingName() string {
	return c.name
}

// CountTokens returns the number of tokens text encodes to under codec.
func CountTokens(codec Codec, text string) int {
	return len(codec.Encode(text))
}
