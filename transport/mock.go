package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertion)
var _ core.Transport = (*Mock)(nil)

// Script describes how the Mock answers one agent.
type Script struct {
	// Answer is the final reply text. When empty the Mock answers
	// "<agent>: <question>".
	Answer string
	// Err, when set, is reported instead of an answer.
	Err error
	// Progress is the number of progress replies sent before resolving.
	Progress int
	// Delay is waited (honouring ctx) before resolving.
	Delay time.Duration
	// Release, when non-nil, is waited on (honouring ctx) before resolving.
	Release <-chan struct{}
	// Block makes the call wait until ctx is done and report ctx.Err().
	Block bool
	// Silent closes both channels without a final reply or error.
	Silent bool
}

// Mock is a scripted core.Transport. The zero value is not usable; call NewMock.
type Mock struct {
	mu       sync.Mutex
	scripts  map[core.AgentID]Script
	fallback Script
	calls    []core.Query
}

// NewMock creates a mock that echoes every question.
func NewMock() *Mock {
	return &Mock{scripts: make(map[core.AgentID]Script)}
}

// On sets the script of agent. Returns m for chaining.
func (m *Mock) On(agent core.AgentID, s Script) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[agent] = s
	return m
}

// Default sets the script used for agents without their own.
func (m *Mock) Default(s Script) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = s
	return m
}

// Calls returns every query received so far in call order.
func (m *Mock) Calls() []core.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Query(nil), m.calls...)
}

// CallCount returns the number of queries received for agent.
func (m *Mock) CallCount(agent core.AgentID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.calls {
		if q.AgentID == agent {
			n++
		}
	}
	return n
}

// Ask implements core.Transport.
func (m *Mock) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	s, ok := m.scripts[q.AgentID]
	if !ok {
		s = m.fallback
	}
	m.mu.Unlock()

	replies := make(chan core.Reply, s.Progress+1)
	errs := make(chan error, 1)
	go func() {
		defer close(replies)
		defer close(errs)
		for i := 0; i < s.Progress; i++ {
			replies <- core.Reply{Progress: true}
		}
		if err := s.wait(ctx); err != nil {
			errs <- err
			return
		}
		switch {
		case s.Silent:
		case s.Err != nil:
			errs <- s.Err
		case s.Answer != "":
			replies <- core.Reply{Text: s.Answer}
		default:
			replies <- core.Reply{Text: fmt.Sprintf("%s: %s", q.AgentID, q.Question)}
		}
	}()
	return replies, errs
}

func (s Script) wait(ctx context.Context) error {
	if s.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
