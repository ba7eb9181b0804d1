package core

import (
	"context"
	"time"
)

// Query is one question addressed to one agent.
type Query struct {
	ConversationID string    `json:"conversation_id"`
	TurnID         string    `json:"turn_id"`
	AgentID        AgentID   `json:"agent_id"`
	Question       string    `json:"question"`
	History        []Event   `json:"history,omitempty"` // prior exchanges when context inclusion is enabled
	Deadline       time.Time `json:"deadline,omitempty"` // zero means no per-agent deadline
}

// HasDeadline reports whether the query carries a deadline.
func (q Query) HasDeadline() bool { return !q.Deadline.IsZero() }

// Reply is a (progress or final) message emitted by a Transport.
type Reply struct {
	Progress bool   `json:"progress"` // true for "agent is working" notifications
	Text     string `json:"text,omitempty"`
}

// Transport performs the question -> answer round trip with one agent.
//
// Ask returns a reply channel yielding zero or more progress replies followed
// by at most one final reply, and an error channel yielding at most one
// error. Implementations close both channels when done and must be safe for
// concurrent calls with distinct agent ids. Retries, if any, are internal to
// the transport.
type Transport interface {
	Ask(ctx context.Context, q Query) (<-chan Reply, <-chan error)
}

// TransportFunc adapts a blocking function into a Transport.
type TransportFunc func(ctx context.Context, q Query) (string, error)

// Ask implements Transport.
func (f TransportFunc) Ask(ctx context.Context, q Query) (<-chan Reply, <-chan error) {
	replies := make(chan Reply, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(replies)
		defer close(errs)
		text, err := f(ctx, q)
		if err != nil {
			errs <- err
			return
		}
		replies <- Reply{Text: text}
	}()
	return replies, errs
}
