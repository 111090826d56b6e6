package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxClassifyBytes bounds how much document text is sent with a
// classification request. Category is recoverable from the opening of a
// document; the full text would waste completion context.
const maxClassifyBytes = 4000

const classifySystemPrompt = "You are a document classifier. " +
	"Reply with exactly one category name from the list you are given and nothing else."

// Classifier assigns one label from a fixed closed set to a document using a
// single chat completion.
type Classifier struct {
	client     *Client
	categories []string
	canonical  map[string]string // normalized label -> configured label
}

// NewClassifier creates a classifier over the given category vocabulary.
func NewClassifier(client *Client, categories []string) (*Classifier, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: empty category set", ErrBadRequest)
	}

	canonical := make(map[string]string, len(categories))
	for _, category := range categories {
		key := normalizeLabel(category)
		if key == "" {
			return nil, fmt.Errorf("%w: blank category", ErrBadRequest)
		}
		canonical[key] = category
	}

	return &Classifier{
		client:     client,
		categories: categories,
		canonical:  canonical,
	}, nil
}

// Categories returns the configured label set in configuration order.
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Classify returns the category assigned to the document. The completion is
// normalized before matching; a completion outside the configured set is an
// ErrUnknownCategory upstream failure, never silently accepted.
func (c *Classifier) Classify(ctx context.Context, title, text string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: c.buildPrompt(title, text)},
	}

	completion, err := c.client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	label, ok := c.canonical[normalizeLabel(completion)]
	if !ok {
		return "", fmt.Errorf("%w: completion %q", ErrUnknownCategory, strings.TrimSpace(completion))
	}
	return label, nil
}

func (c *Classifier) buildPrompt(title, text string) string {
	return fmt.Sprintf("Categories: %s\n\nTitle: %s\n\n%s\n\nCategory:",
		strings.Join(c.categories, ", "), title, truncateRunes(text, maxClassifyBytes))
}

// normalizeLabel folds the cosmetic variation models add around a label:
// case, surrounding whitespace and quotes, and a trailing period.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(strings.TrimSpace(s))
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
