package indexer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ErrUnsupportedFormat is returned for corpus files whose extension has no
// extractor. The pipeline isolates this per document.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// maxTitleRunes bounds extracted titles so they fit the vector store's
// title field.
const maxTitleRunes = 256

// Extractor turns corpus files into plain text plus a display title.
type Extractor struct {
	markdown goldmark.Markdown
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Extract reads the file at absPath and returns its title and plain text.
// The title rules per format: first non-empty line (.txt, .pdf) or first
// H1/H2 heading (.md), falling back to a name derived from the filename.
func (e *Extractor) Extract(absPath, relPath string) (title, plain string, err error) {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".txt":
		return e.extractPlainText(absPath, relPath)
	case ".md":
		return e.extractMarkdown(absPath, relPath)
	case ".pdf":
		return e.extractPDF(absPath, relPath)
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(relPath))
	}
}

func (e *Extractor) extractPlainText(absPath, relPath string) (string, string, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	plain := string(content)
	title := firstNonEmptyLine(plain)
	if title == "" {
		title = titleFromFilename(relPath)
	}
	return title, plain, nil
}

func (e *Extractor) extractMarkdown(absPath, relPath string) (string, string, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return titleFromFilename(relPath), "", nil
	}

	reader := text.NewReader(content)
	doc := e.markdown.Parser().Parse(reader)

	title := markdownTitle(doc, content)
	if title == "" {
		title = titleFromFilename(relPath)
	}

	return truncateTitle(title), markdownPlainText(doc, content), nil
}

func (e *Extractor) extractPDF(absPath, relPath string) (string, string, error) {
	f, r, err := pdf.Open(absPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	plain := strings.TrimSpace(string(content))
	title := firstNonEmptyLine(plain)
	if title == "" {
		title = titleFromFilename(relPath)
	}
	return title, plain, nil
}

// markdownTitle extracts the document title: the first level-1 heading, else
// the first level-2 heading, else empty.
func markdownTitle(doc ast.Node, content []byte) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			headingText := nodeText(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
			} else if heading.Level == 2 && firstH2 == "" && firstH1 == "" {
				firstH2 = headingText
			}
			if firstH1 != "" {
				return ast.WalkStop, nil
			}
		}

		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	return firstH2
}

// markdownPlainText flattens the markdown AST into plain text: block nodes
// are newline-separated, table rows keep their cells joined with pipes, and
// inline markup is dropped.
func markdownPlainText(doc ast.Node, content []byte) string {
	var b strings.Builder

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.List, *ast.ListItem:
			ensureNewline(&b)
			return ast.WalkContinue, nil

		case *ast.Text:
			b.Write(node.Segment.Value(content))
			return ast.WalkContinue, nil

		case *ast.String:
			b.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock:
			ensureNewline(&b)
			writeCodeLines(&b, node, content)
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			ensureNewline(&b)
			writeCodeLines(&b, node, content)
			return ast.WalkSkipChildren, nil

		default:
			kindName := n.Kind().String()
			if kindName == "TableRow" || kindName == "TableHeader" {
				ensureNewline(&b)
				b.WriteString(tableRowText(n, content))
				b.WriteString("\n")
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		}
	})

	return strings.TrimSpace(b.String())
}

func ensureNewline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}

func writeCodeLines(b *strings.Builder, node ast.Node, content []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(content))
	}
}

// nodeText extracts the flattened text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// tableRowText joins a table row's cell texts with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var b strings.Builder
	cellCount := 0

	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind().String() == "TableCell" {
			if cellCount > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(nodeText(node, content))
			cellCount++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return b.String()
}

// firstNonEmptyLine returns the first line with non-whitespace content,
// trimmed and bounded by maxTitleRunes.
func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return truncateTitle(line)
		}
	}
	return ""
}

// titleFromFilename derives a title from the filename: extension stripped,
// first letter of each word capitalized.
func titleFromFilename(relPath string) string {
	name := filepath.Base(relPath)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes])
}
