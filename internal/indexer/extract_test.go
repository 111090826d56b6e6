package indexer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func extractFixture(t *testing.T, name, content string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	writeCorpusFile(t, dir, name, content)
	return NewExtractor().Extract(filepath.Join(dir, name), name)
}

func TestExtract_PlainText(t *testing.T) {
	content := "\nQuarterly Review\n\nRevenue grew in every segment."
	title, plain, err := extractFixture(t, "notes.txt", content)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if title != "Quarterly Review" {
		t.Errorf("Extract() title = %q, want Quarterly Review", title)
	}
	if plain != content {
		t.Errorf("Extract() text = %q, want raw content", plain)
	}
}

func TestExtract_PlainTextTitleFallback(t *testing.T) {
	title, plain, err := extractFixture(t, "meeting-notes.txt", "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if title != "Meeting-notes" {
		t.Errorf("Extract() title = %q, want Meeting-notes", title)
	}
	if plain != "" {
		t.Errorf("Extract() text = %q, want empty", plain)
	}
}

func TestExtract_TitleTruncated(t *testing.T) {
	longLine := strings.Repeat("a", 300)
	title, _, err := extractFixture(t, "long.txt", longLine+"\nbody")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := len([]rune(title)); got != maxTitleRunes {
		t.Errorf("Extract() title length = %d runes, want %d", got, maxTitleRunes)
	}
}

func TestExtract_Markdown(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		content      string
		wantTitle    string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:      "h1 title",
			file:      "doc.md",
			content:   "intro text\n\n# Main Title\n\nBody paragraph here.",
			wantTitle: "Main Title",
			wantContains: []string{
				"intro text",
				"Main Title",
				"Body paragraph here.",
			},
			wantExcludes: []string{"# Main"},
		},
		{
			name:      "h2 fallback",
			file:      "doc.md",
			content:   "## Section Heading\n\nSome text.",
			wantTitle: "Section Heading",
		},
		{
			name:      "h1 wins over earlier h2",
			file:      "doc.md",
			content:   "## Sub\n\n# Top\n\nText.",
			wantTitle: "Top",
		},
		{
			name:      "filename fallback",
			file:      "release-notes.md",
			content:   "Just a paragraph, no headings.",
			wantTitle: "Release-notes",
		},
		{
			name:      "list items flattened",
			file:      "doc.md",
			content:   "# Tasks\n\n- first item\n- second item\n",
			wantTitle: "Tasks",
			wantContains: []string{
				"first item",
				"second item",
			},
			wantExcludes: []string{"- first"},
		},
		{
			name:      "code fence retained",
			file:      "doc.md",
			content:   "# Code\n\n```go\nfmt.Println(42)\n```\n",
			wantTitle: "Code",
			wantContains: []string{
				"fmt.Println(42)",
			},
			wantExcludes: []string{"```"},
		},
		{
			name:      "table cells joined with pipes",
			file:      "doc.md",
			content:   "# Data\n\n| Name | Value |\n| --- | --- |\n| alpha | 1 |\n",
			wantTitle: "Data",
			wantContains: []string{
				"Name | Value",
				"alpha | 1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, plain, err := extractFixture(t, tt.file, tt.content)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if title != tt.wantTitle {
				t.Errorf("Extract() title = %q, want %q", title, tt.wantTitle)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(plain, want) {
					t.Errorf("Extract() text missing %q:\n%s", want, plain)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(plain, exclude) {
					t.Errorf("Extract() text should not contain %q:\n%s", exclude, plain)
				}
			}
		})
	}
}

func TestExtract_EmptyMarkdown(t *testing.T) {
	title, plain, err := extractFixture(t, "empty.md", "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if title != "Empty" || plain != "" {
		t.Errorf("Extract() = %q, %q; want Empty and no text", title, plain)
	}
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, _, err := extractFixture(t, "broken.pdf", "not a pdf at all")
	if err == nil {
		t.Fatal("Extract() over invalid PDF should fail")
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, _, err := extractFixture(t, "report.docx", "binary")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"meeting-notes.md", "Meeting-notes"},
		{"weekly report.txt", "Weekly Report"},
		{"README", "README"},
		{"sub/dir/file.txt", "File"},
	}

	for _, tt := range tests {
		if got := titleFromFilename(tt.path); got != tt.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
