// Package selector holds the participant set of a channel conversation.
//
// The set is replaced atomically by Select/SelectAll and read by the
// orchestrator once per turn through Snapshot, so an in-flight turn is never
// affected by later selection changes.
package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/agentchat/core"
)

// Interface compliance (compile-time assertion)
var _ core.ParticipantSource = (*Selector)(nil)

var (
	// ErrNoDirectory is returned by SelectAll when no directory is configured.
	ErrNoDirectory = errors.New("selector: no directory configured")
	// ErrEmptySelection is returned by ParseSelection for input naming no agent.
	ErrEmptySelection = errors.New("no agents selected")
)

// Selector is the Agent Selector of one conversation.
type Selector struct {
	conversationID string
	dir            core.Directory

	mu       sync.RWMutex
	selected []core.AgentID
}

// New creates an empty selector for conversationID. dir may be nil, in which
// case Select accepts any ids and SelectAll is unavailable.
func New(conversationID string, dir core.Directory) *Selector {
	return &Selector{conversationID: conversationID, dir: dir}
}

// Select replaces the participant set with ids (duplicates removed, order
// kept). With a directory configured every id must be a member of the
// conversation, else core.ErrUnknownAgent is returned and the set is left
// unchanged. An empty set is accepted.
func (s *Selector) Select(ctx context.Context, ids []core.AgentID) error {
	ids = lo.Uniq(ids)
	if s.dir != nil && len(ids) > 0 {
		available, err := s.dir.ListAgents(ctx, s.conversationID)
		if err != nil {
			return fmt.Errorf("selector: list agents: %w", err)
		}
		if unknown, _ := lo.Difference(ids, available); len(unknown) > 0 {
			return fmt.Errorf("%w: %s", core.ErrUnknownAgent, joinIDs(unknown))
		}
	}
	s.set(ids)
	return nil
}

// SelectAll selects every agent the directory currently lists and returns
// the new set.
func (s *Selector) SelectAll(ctx context.Context) ([]core.AgentID, error) {
	if s.dir == nil {
		return nil, ErrNoDirectory
	}
	available, err := s.dir.ListAgents(ctx, s.conversationID)
	if err != nil {
		return nil, fmt.Errorf("selector: list agents: %w", err)
	}
	ids := lo.Uniq(available)
	s.set(ids)
	return append([]core.AgentID(nil), ids...), nil
}

// Available lists the agents selectable in this conversation.
func (s *Selector) Available(ctx context.Context) ([]core.AgentID, error) {
	if s.dir == nil {
		return nil, ErrNoDirectory
	}
	return s.dir.ListAgents(ctx, s.conversationID)
}

func (s *Selector) set(ids []core.AgentID) {
	cp := append([]core.AgentID(nil), ids...)
	s.mu.Lock()
	s.selected = cp
	s.mu.Unlock()
}

// Snapshot returns a copy of the current participant set.
func (s *Selector) Snapshot() []core.AgentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.AgentID(nil), s.selected...)
}

// Selected reports whether id is in the current set.
func (s *Selector) Selected(id core.AgentID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Contains(s.selected, id)
}

// Len returns the size of the current set.
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// ParseSelection interprets user input as either "all" (case-insensitive),
// selecting every available agent, or a comma-separated list of ids. Every
// listed id must be available.
func ParseSelection(input string, available []core.AgentID) ([]core.AgentID, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "all") {
		return append([]core.AgentID(nil), available...), nil
	}
	var ids []core.AgentID
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, core.AgentID(part))
		}
	}
	ids = lo.Uniq(ids)
	if unknown, _ := lo.Difference(ids, available); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAgent, joinIDs(unknown))
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	return ids, nil
}

func joinIDs(ids []core.AgentID) string {
	return strings.Join(lo.Map(ids, func(id core.AgentID, _ int) string { return string(id) }), ", ")
}
