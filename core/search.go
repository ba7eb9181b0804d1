package core

// SearchResult is one knowledge snippet of an agent matched by
// MemoryStore.Search. Score is in (0, 1]; higher means more of the query
// matched. Metadata carries whatever was stored with the snippet, such as
// its source.
type SearchResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Snippets returns the Content of each result in order.
func Snippets(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out
}
