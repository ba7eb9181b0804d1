package memory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/samber/lo"

	"github.com/hupe1980/agentchat/core"
)

// ErrMemoryNotFound is returned by Delete for unknown agents or memory ids.
var ErrMemoryNotFound = errors.New("memory not found")

// StoredMemory is the internal representation persisted by InMemoryStore.
type StoredMemory struct {
	ID       string
	Content  string
	Metadata map[string]any
	seq      int
}

// InMemoryStore is a naive process-local MemoryStore keyed by agent.
//
// Search tokenizes the query into lower-cased words and scores each memory by
// the fraction of distinct query words it contains. Memories with a zero
// score are skipped; an empty query matches everything with score 1. Results
// are ordered by descending score, then by insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[core.AgentID]map[string]StoredMemory // agent -> memoryID -> stored memory
	next    int
}

// NewInMemoryStore creates a new in-memory memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[core.AgentID]map[string]StoredMemory)}
}

// Store appends a new memory for agent and returns its id.
func (m *InMemoryStore) Store(agent core.AgentID, content string, metadata map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.storage[agent]; !exists {
		m.storage[agent] = make(map[string]StoredMemory)
	}
	m.next++
	memoryID := fmt.Sprintf("mem_%d", m.next)
	m.storage[agent][memoryID] = StoredMemory{ID: memoryID, Content: content, Metadata: copyMetadata(metadata), seq: m.next}
	return memoryID, nil
}

// Search returns up to limit memories of agent matching query. A
// non-positive limit returns every match.
func (m *InMemoryStore) Search(agent core.AgentID, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agentStorage, exists := m.storage[agent]
	if !exists {
		return []core.SearchResult{}, nil
	}

	terms := Tokenize(query)
	type scored struct {
		mem   StoredMemory
		score float64
	}
	hits := make([]scored, 0, len(agentStorage))
	for _, stored := range agentStorage {
		score := Score(terms, stored.Content)
		if score <= 0 {
			continue
		}
		hits = append(hits, scored{mem: stored, score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].mem.seq < hits[j].mem.seq
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return lo.Map(hits, func(h scored, _ int) core.SearchResult {
		return core.SearchResult{ID: h.mem.ID, Content: h.mem.Content, Score: h.score, Metadata: copyMetadata(h.mem.Metadata)}
	}), nil
}

// Delete removes a stored memory entry by id.
func (m *InMemoryStore) Delete(agent core.AgentID, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	agentStorage, exists := m.storage[agent]
	if !exists {
		return ErrMemoryNotFound
	}
	if _, exists := agentStorage[memoryID]; !exists {
		return ErrMemoryNotFound
	}
	delete(agentStorage, memoryID)
	return nil
}

// Len returns the number of memories stored for agent.
func (m *InMemoryStore) Len(agent core.AgentID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.storage[agent])
}

// Tokenize splits s into distinct lower-cased words of at least two runes.
func Tokenize(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words = lo.Filter(words, func(w string, _ int) bool { return len([]rune(w)) >= 2 })
	return lo.Uniq(words)
}

// Score returns the fraction of terms contained in content. No terms scores 1.
func Score(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 1
	}
	words := lo.SliceToMap(Tokenize(content), func(w string) (string, struct{}) { return w, struct{}{} })
	matched := lo.CountBy(terms, func(t string) bool {
		_, ok := words[t]
		return ok
	})
	return float64(matched) / float64(len(terms))
}

func copyMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
