package workflow

import (
	"strings"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// Classification is the router's parsed verdict on a question.
type Classification struct {
	NeedsDatabase       bool
	QueryType           model.QueryType
	VisualizationNeeded bool
	Reasoning           string
}

// defaultClassification routes ambiguous questions to the strategy path,
// the cheapest one: no SQL generation, no warehouse round trip.
func defaultClassification() Classification {
	return Classification{
		NeedsDatabase:       false,
		QueryType:           model.QueryTypeStrategy,
		VisualizationNeeded: false,
	}
}

// ParseClassification extracts the routing fields from a structured-text
// completion by matching fixed line prefixes. Malformed or unrecognized
// responses fall back to the strategy-path defaults field by field.
func ParseClassification(response string) Classification {
	c := defaultClassification()

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "needs database:"):
			c.NeedsDatabase = parseYes(trimmed[len("needs database:"):])
		case strings.HasPrefix(lower, "query type:"):
			qt := strings.ToLower(strings.TrimSpace(trimmed[len("query type:"):]))
			qt = strings.Trim(qt, "[] ")
			if model.ValidQueryType(qt) {
				c.QueryType = model.QueryType(qt)
			}
		case strings.HasPrefix(lower, "visualization needed:"):
			c.VisualizationNeeded = parseYes(trimmed[len("visualization needed:"):])
		case strings.HasPrefix(lower, "reasoning:"):
			c.Reasoning = strings.TrimSpace(trimmed[len("reasoning:"):])
		}
	}
	return c
}

func parseYes(s string) bool {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(s)), "[] ") {
	case "yes", "true", "ya":
		return true
	}
	return false
}

// listMarkers open a line that counts as a list item.
var listMarkers = []string{
	"-", "*", "•", "–",
	"1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9.",
	"1)", "2)", "3)", "4)", "5)", "6)", "7)", "8)", "9)",
}

const maxListItems = 4

// ParseBoundedList extracts at most maxListItems entries from free-text
// completion output. Lines opening with a bullet or number marker qualify;
// when none do, the text is split on sentence boundaries and the first
// non-trivial sentences are taken instead. With questionsOnly set, an
// entry additionally has to contain a question mark.
func ParseBoundedList(response string, questionsOnly bool) []string {
	var items []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		marker, ok := leadingMarker(trimmed)
		if !ok {
			continue
		}
		item := strings.TrimSpace(trimmed[len(marker):])
		if item == "" || (questionsOnly && !strings.Contains(item, "?")) {
			continue
		}
		items = append(items, item)
		if len(items) == maxListItems {
			return items
		}
	}
	if len(items) > 0 {
		return items
	}

	// Fallback: the model answered in prose.
	for _, sentence := range splitSentences(response) {
		if len(sentence) < 10 || (questionsOnly && !strings.Contains(sentence, "?")) {
			continue
		}
		items = append(items, sentence)
		if len(items) == maxListItems {
			break
		}
	}
	return items
}

func leadingMarker(line string) (string, bool) {
	for _, m := range listMarkers {
		if strings.HasPrefix(line, m) {
			return m, true
		}
	}
	return "", false
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		b.WriteRune(r)
		if r == '.' || r == '?' || r == '!' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
