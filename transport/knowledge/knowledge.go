// Package knowledge implements a local core.Transport that answers questions
// from each agent's memories.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
)

// Interface compliance (compile-time assertion)
var _ core.Transport = (*Transport)(nil)

// NoKnowledgeAnswer is returned when no memory matches the question.
const NoKnowledgeAnswer = "I don't have any information about that."

// Options configures the knowledge transport.
type Options struct {
	// Limit caps the number of memories quoted in one answer.
	Limit int
	// MinScore drops memories scoring below it.
	MinScore float64
}

// Transport answers from a core.MemoryStore.
type Transport struct {
	store core.MemoryStore
	opts  Options
}

// New creates a knowledge transport over store.
func New(store core.MemoryStore, optFns ...func(o *Options)) *Transport {
	opts := Options{Limit: 3, MinScore: 0.2}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Transport{store: store, opts: opts}
}

// Ask implements core.Transport. It reports one progress reply while
// searching.
func (t *Transport) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	replies := make(chan core.Reply, 2)
	errs := make(chan error, 1)
	go func() {
		defer close(replies)
		defer close(errs)
		replies <- core.Reply{Progress: true}
		if err := ctx.Err(); err != nil {
			errs <- err
			return
		}
		results, err := t.store.Search(q.AgentID, q.Question, t.opts.Limit)
		if err != nil {
			errs <- fmt.Errorf("knowledge search for %s: %w", q.AgentID, err)
			return
		}
		results = lo.Filter(results, func(r core.SearchResult, _ int) bool { return r.Score >= t.opts.MinScore })
		if len(results) == 0 {
			replies <- core.Reply{Text: NoKnowledgeAnswer}
			return
		}
		replies <- core.Reply{Text: "Here is what I know:\n- " + strings.Join(core.Snippets(results), "\n- ")}
	}()
	return replies, errs
}

// Seed stores the Knowledge snippets of every agent in store and returns the
// number of snippets stored.
func Seed(store core.MemoryStore, agents []directory.Agent) (int, error) {
	n := 0
	for _, a := range agents {
		for _, k := range a.Knowledge {
			if _, err := store.Store(a.ID, k, map[string]any{"source": "directory"}); err != nil {
				return n, fmt.Errorf("seed knowledge for %s: %w", a.ID, err)
			}
			n++
		}
	}
	return n, nil
}
