package core

// MemoryStore holds the knowledge snippets an agent answers from. Search
// results are ordered by descending Score and capped at limit.
type MemoryStore interface {
	Store(agent AgentID, content string, metadata map[string]any) (string, error)
	Search(agent AgentID, query string, limit int) ([]SearchResult, error)
	Delete(agent AgentID, memoryID string) error
}
