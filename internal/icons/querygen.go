package icons

import (
	"context"
	"fmt"
	"strings"

	"github.com/slideforge/slideforge/internal/observability"
)

// TextGenerator is the generative API surface used for query generation.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// stopWords are skipped when deriving a query from a slide title.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "and": true, "or": true, "with": true,
	"is": true, "are": true, "how": true, "what": true, "why": true,
	"your": true, "our": true, "its": true, "this": true, "that": true,
}

// QueryGenerator produces short icon search queries for slides.
type QueryGenerator struct {
	gen    TextGenerator
	logger *observability.Logger
}

// NewQueryGenerator creates a query generator. gen may be nil, in which case
// only the title-derived fallback is used.
func NewQueryGenerator(gen TextGenerator, logger *observability.Logger) *QueryGenerator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &QueryGenerator{gen: gen, logger: logger.WithComponent("icons")}
}

// Query returns a 1-3 word icon search query for a slide. avoid lists
// queries that already failed, so retries explore new terms.
func (q *QueryGenerator) Query(ctx context.Context, title string, bullets []string, avoid []string) string {
	if q.gen != nil {
		query, err := q.generate(ctx, title, bullets, avoid)
		if err == nil && query != "" {
			return query
		}
		if err != nil {
			q.logger.Warn().Str("title", title).Err(err).Msg("query generation failed, deriving from title")
		}
	}
	return titleQuery(title, avoid)
}

func (q *QueryGenerator) generate(ctx context.Context, title string, bullets []string, avoid []string) (string, error) {
	prompt := fmt.Sprintf(`Suggest a search query for a simple, universally recognizable icon that represents this slide:

Title: %s
Bullets: %s

Reply with ONLY the query: 1 to 3 common English words, lowercase, no punctuation.`,
		title, strings.Join(bullets, "; "))
	if len(avoid) > 0 {
		prompt += fmt.Sprintf("\nDo not suggest any of these (they returned no icons): %s.", strings.Join(avoid, ", "))
	}

	raw, err := q.gen.GenerateText(ctx, prompt, 0.7, 32)
	if err != nil {
		return "", err
	}
	return sanitizeQuery(raw, avoid), nil
}

// sanitizeQuery normalizes model output to at most three lowercase words and
// rejects queries already on the avoid list.
func sanitizeQuery(raw string, avoid []string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.Trim(raw, "\"'`.")
	words := strings.Fields(raw)
	if len(words) == 0 || len(words) > 3 {
		return ""
	}
	query := strings.Join(words, " ")
	for _, a := range avoid {
		if query == a {
			return ""
		}
	}
	return query
}

// titleQuery derives a query from the slide title: the first significant
// word not already tried.
func titleQuery(title string, avoid []string) string {
	avoidSet := make(map[string]bool, len(avoid))
	for _, a := range avoid {
		avoidSet[a] = true
	}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?()[]\"'")
		if w == "" || stopWords[w] || avoidSet[w] {
			continue
		}
		return w
	}
	return "idea"
}
