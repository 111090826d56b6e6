package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// runeCodec maps every rune to one token id. It keeps the splitter tests
// deterministic and offline; the partition logic never depends on which
// concrete encoding produced the ids.
type runeCodec struct{}

func (runeCodec) Encode(text string) []int {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}
	return ids
}

func (runeCodec) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		b.WriteRune(rune(id))
	}
	return b.String(), nil
}

func (runeCodec) EncodingName() string { return "rune-test" }

func TestNew_InvalidMaxTokens(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
	}{
		{name: "zero", maxTokens: 0},
		{name: "negative", maxTokens: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(runeCodec{}, tt.maxTokens)
			if err == nil {
				t.Fatalf("New() expected error for maxTokens=%d, got nil", tt.maxTokens)
			}
			if !errors.Is(err, ErrInvalidMaxTokens) {
				t.Errorf("New() error = %v, want ErrInvalidMaxTokens", err)
			}
			if s != nil {
				t.Errorf("New() splitter = %v, want nil", s)
			}
		})
	}
}

func TestSplit_SevenTokensLimitThree(t *testing.T) {
	s, err := New(runeCodec{}, 3)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	chunks, err := s.Split("ABCDEFG")
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	want := []struct {
		text   string
		tokens int
	}{
		{text: "ABC", tokens: 3},
		{text: "DEF", tokens: 3},
		{text: "G", tokens: 1},
	}

	if len(chunks) != len(want) {
		t.Fatalf("Split() produced %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].Index != i {
			t.Errorf("chunk %d Index = %d, want %d", i, chunks[i].Index, i)
		}
		if chunks[i].Text != w.text {
			t.Errorf("chunk %d Text = %q, want %q", i, chunks[i].Text, w.text)
		}
		if chunks[i].TokenCount != w.tokens {
			t.Errorf("chunk %d TokenCount = %d, want %d", i, chunks[i].TokenCount, w.tokens)
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s, err := New(runeCodec{}, 10)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	chunks, err := s.Split("")
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Split(\"\") produced %d chunks, want 0", len(chunks))
	}
}

func TestSplit_ReassemblesTokenSequence(t *testing.T) {
	codec := runeCodec{}
	texts := []string{
		"a",
		"hello world",
		strings.Repeat("x", 257),
		"mixed unicode: héllo wörld ünïcode",
	}
	limits := []int{1, 2, 3, 7, 64, 1000}

	for _, text := range texts {
		for _, limit := range limits {
			s, err := New(codec, limit)
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}

			chunks, err := s.Split(text)
			if err != nil {
				t.Fatalf("Split(%q, %d) unexpected error: %v", text, limit, err)
			}

			var reassembled []int
			for i, chunk := range chunks {
				if i < len(chunks)-1 && chunk.TokenCount != limit {
					t.Errorf("Split(%q, %d) chunk %d has %d tokens, want %d",
						text, limit, i, chunk.TokenCount, limit)
				}
				if i == len(chunks)-1 && (chunk.TokenCount < 1 || chunk.TokenCount > limit) {
					t.Errorf("Split(%q, %d) last chunk has %d tokens, want 1..%d",
						text, limit, chunk.TokenCount, limit)
				}
				reassembled = append(reassembled, chunk.Tokens...)
			}

			if want := codec.Encode(text); !reflect.DeepEqual(reassembled, want) {
				t.Errorf("Split(%q, %d) reassembled tokens differ from full encoding", text, limit)
			}
		}
	}
}

func TestSplit_TextRoundTrip(t *testing.T) {
	s, err := New(runeCodec{}, 4)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	text := "the quick brown fox jumps over the lazy dog"
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	var joined strings.Builder
	for _, chunk := range chunks {
		joined.WriteString(chunk.Text)
	}
	if joined.String() != text {
		t.Errorf("joined chunk texts = %q, want %q", joined.String(), text)
	}
}

func TestSplit_Idempotent(t *testing.T) {
	s, err := New(runeCodec{}, 5)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	text := "idempotence means calling twice changes nothing"
	first, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}
	second, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Split() called twice produced different chunk sequences")
	}
}

func TestSplit_SingleTokenLimit(t *testing.T) {
	s, err := New(runeCodec{}, 1)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	text := "abcdefghij"
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	if len(chunks) != len(text) {
		t.Fatalf("Split() produced %d chunks, want %d", len(chunks), len(text))
	}
	for i, chunk := range chunks {
		if chunk.TokenCount != 1 {
			t.Errorf("chunk %d TokenCount = %d, want 1", i, chunk.TokenCount)
		}
	}
}

func TestSplitTokens_EmbeddingLimitPartition(t *testing.T) {
	s, err := New(runeCodec{}, 8191)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ids := make([]int, 9000)
	for i := range ids {
		ids[i] = i
	}

	groups := s.SplitTokens(ids)
	if len(groups) != 2 {
		t.Fatalf("SplitTokens() produced %d groups, want 2", len(groups))
	}
	if len(groups[0]) != 8191 {
		t.Errorf("group 0 len = %d, want 8191", len(groups[0]))
	}
	if len(groups[1]) != 809 {
		t.Errorf("group 1 len = %d, want 809", len(groups[1]))
	}
}

func TestSplitTokens_Empty(t *testing.T) {
	s, err := New(runeCodec{}, 8)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	if groups := s.SplitTokens(nil); len(groups) != 0 {
		t.Errorf("SplitTokens(nil) produced %d groups, want 0", len(groups))
	}
}

// failingCodec decodes nothing successfully; it stands in for a chunk
// boundary that splits a multi-byte rune across windows.
type failingCodec struct {
	runeCodec
}

func (failingCodec) Decode(ids []int) (string, error) {
	return "", errors.New("malformed token group")
}

func TestSplit_DecodeFailureIsFatal(t *testing.T) {
	s, err := New(failingCodec{}, 3)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	chunks, err := s.Split("anything")
	if err == nil {
		t.Fatal("Split() expected decode error, got nil")
	}
	if chunks != nil {
		t.Errorf("Split() chunks = %v, want nil on decode failure", chunks)
	}
}
