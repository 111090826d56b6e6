package tokenizer

import (
	"errors"
	"testing"
)

func TestGet_UnknownEncoding(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
	}{
		{name: "made up name", encoding: "not-a-real-encoding"},
		{name: "model name instead of encoding", encoding: "text-embedding-3-small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := Get(tt.encoding)
			if err == nil {
				t.Fatalf("Get(%q) expected error, got nil", tt.encoding)
			}
			if !errors.Is(err, ErrUnknownEncoding) {
				t.Errorf("Get(%q) error = %v, want ErrUnknownEncoding", tt.encoding, err)
			}
			if codec != nil {
				t.Errorf("Get(%q) codec = %v, want nil", tt.encoding, codec)
			}
		})
	}
}

func TestDefaultEncodingName(t *testing.T) {
	if DefaultEncoding != "cl100k_base" {
		t.Errorf("DefaultEncoding = %q, want cl100k_base", DefaultEncoding)
	}
}
