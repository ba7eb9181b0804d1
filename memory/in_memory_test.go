package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertions)
var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestInMemoryMemoryStore_StoreSearchDelete(t *testing.T) {
	svc := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		if _, err := svc.Store("alice", "content "+string(rune('A'+i)), map[string]any{"idx": i}); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}
	// search all (empty query) limit larger than stored
	res, err := svc.Search("alice", "", 10)
	if err != nil {
		t.Fatalf("search all failed: %v", err)
	}
	if len(res) != 5 {
		t.Fatalf("expected 5 results, got %d", len(res))
	}
	// insertion order on equal scores
	if res[0].Content != "content A" {
		t.Fatalf("expected insertion order, got %q first", res[0].Content)
	}
	// limit test
	res3, _ := svc.Search("alice", "", 3)
	if len(res3) != 3 {
		t.Fatalf("expected 3 limited results, got %d", len(res3))
	}
	if err := svc.Delete("alice", res[0].ID); err != nil {
		t.Fatalf("delete existing failed: %v", err)
	}
	if err := svc.Delete("alice", res[0].ID); err != ErrMemoryNotFound {
		t.Fatalf("expected ErrMemoryNotFound, got %v", err)
	}
	if err := svc.Delete("bob", "mem_1"); err != ErrMemoryNotFound {
		t.Fatalf("expected ErrMemoryNotFound for unknown agent, got %v", err)
	}
	if svc.Len("alice") != 4 {
		t.Fatalf("expected 4 memories left, got %d", svc.Len("alice"))
	}
}

func TestInMemoryMemoryStore_ScoredSearch(t *testing.T) {
	svc := NewInMemoryStore()
	_, _ = svc.Store("alice", "The deploy pipeline runs on Kubernetes.", nil)
	_, _ = svc.Store("alice", "Kubernetes cluster upgrades happen on Fridays, the deploy freeze applies.", nil)
	_, _ = svc.Store("alice", "Lunch at noon.", nil)
	_, _ = svc.Store("bob", "Kubernetes belongs to bob.", nil)

	res, err := svc.Search("alice", "When is the Kubernetes deploy freeze?", 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Contains(t, res[0].Content, "freeze")
	assert.Greater(t, res[0].Score, res[1].Score)
	for _, r := range res {
		assert.NotContains(t, r.Content, "bob")
	}
}

func TestInMemoryMemoryStore_MetadataIsolation(t *testing.T) {
	svc := NewInMemoryStore()
	md := map[string]any{"source": "wiki"}
	_, _ = svc.Store("alice", "runbook", md)
	md["source"] = "changed"

	res, _ := svc.Search("alice", "runbook", 1)
	require.Len(t, res, 1)
	assert.Equal(t, "wiki", res[0].Metadata["source"])
	res[0].Metadata["source"] = "mutated"
	again, _ := svc.Search("alice", "runbook", 1)
	assert.Equal(t, "wiki", again[0].Metadata["source"])
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "go"}, Tokenize("What is Go? is a"))
	assert.Empty(t, Tokenize("  ! ? "))
}

func TestInMemoryMemoryStore_Concurrent(t *testing.T) {
	svc := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Store("alice", "note", nil)
			_, _ = svc.Search("alice", "note", 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, svc.Len("alice"))
}
