package testutil

import (
	"errors"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// EventBuilder provides a fluent helper for constructing transcript events in tests.
// Example:
//
//	ev := NewEventBuilder().Conversation("c1").Turn("t1").Answer("alice", "hello").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	conversationID string
	turnID         string
	id             string
	seq            uint64
	kind           core.EventKind
	agent          core.AgentID
	agents         []core.AgentID
	text           string
	reason         string
	detail         string
	ts             time.Time
}

// NewEventBuilder creates a builder with default conversation "conv" and turn "turn".
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{conversationID: "conv", turnID: "turn", kind: core.EventQuestion}
}

// Conversation sets the conversation ID (chainable).
func (b *EventBuilder) Conversation(id string) *EventBuilder { b.conversationID = id; return b }

// Turn sets the turn ID (chainable).
func (b *EventBuilder) Turn(id string) *EventBuilder { b.turnID = id; return b }

// ID overrides the auto-generated event ID (chainable). Use mainly in tests where determinism matters.
func (b *EventBuilder) ID(id string) *EventBuilder { b.id = id; return b }

// Seq presets the sequence number (chainable). Stores overwrite it on append.
func (b *EventBuilder) Seq(s uint64) *EventBuilder { b.seq = s; return b }

// At sets the timestamp (chainable).
func (b *EventBuilder) At(ts time.Time) *EventBuilder { b.ts = ts; return b }

// Question makes the event a question (chainable).
func (b *EventBuilder) Question(text string) *EventBuilder {
	b.kind = core.EventQuestion
	b.text = text
	return b
}

// Participants makes the event a participants_chosen record (chainable).
func (b *EventBuilder) Participants(ids ...core.AgentID) *EventBuilder {
	b.kind = core.EventParticipantsChosen
	b.agents = append([]core.AgentID(nil), ids...)
	return b
}

// Progress makes the event a progress signal of agent (chainable).
func (b *EventBuilder) Progress(agent core.AgentID) *EventBuilder {
	b.kind = core.EventProgress
	b.agent = agent
	return b
}

// Answer makes the event an answer of agent (chainable).
func (b *EventBuilder) Answer(agent core.AgentID, text string) *EventBuilder {
	b.kind = core.EventAnswer
	b.agent = agent
	b.text = text
	return b
}

// Error makes the event an error of agent with the given reason (chainable).
func (b *EventBuilder) Error(agent core.AgentID, reason, detail string) *EventBuilder {
	b.kind = core.EventError
	b.agent = agent
	b.reason = reason
	b.detail = detail
	return b
}

// Build constructs the core.Event value.
func (b *EventBuilder) Build() core.Event {
	var ev core.Event
	switch b.kind {
	case core.EventParticipantsChosen:
		ev = core.NewParticipantsChosenEvent(b.conversationID, b.turnID, b.agents)
	case core.EventProgress:
		ev = core.NewProgressEvent(b.conversationID, b.turnID, b.agent)
	case core.EventAnswer:
		ev = core.NewAnswerEvent(b.conversationID, b.turnID, b.agent, b.text)
	case core.EventError:
		var err error
		if b.detail != "" {
			err = errors.New(b.detail)
		}
		ev = core.NewErrorEvent(b.conversationID, b.turnID, b.agent, b.reason, err)
	default:
		ev = core.NewQuestionEvent(b.conversationID, b.turnID, b.text)
	}
	if b.id != "" {
		ev.ID = b.id
	}
	if !b.ts.IsZero() {
		ev.Timestamp = b.ts
	}
	ev.Seq = b.seq
	return ev
}

// Exchange returns a question followed by one answer per agent/text pair, all
// in the same turn. Pairs are given as agent, text, agent, text...
func Exchange(turnID, question string, pairs ...string) []core.Event {
	out := []core.Event{NewEventBuilder().Turn(turnID).Question(question).Build()}
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, NewEventBuilder().Turn(turnID).Answer(core.AgentID(pairs[i]), pairs[i+1]).Build())
	}
	return out
}
