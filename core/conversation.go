package core

import "fmt"

// AgentID is an opaque, stable identifier of an agent. The core only looks
// agents up; it never creates them.
type AgentID string

// String implements fmt.Stringer.
func (id AgentID) String() string { return string(id) }

// ConversationKind distinguishes direct chats from channel chats.
type ConversationKind string

const (
	// KindDirect is a conversation with exactly one fixed agent.
	KindDirect ConversationKind = "direct"
	// KindChannel is a conversation whose participants are chosen per turn
	// from the channel's current selection.
	KindChannel ConversationKind = "channel"
)

// Conversation identifies one chat. Each conversation owns exactly one
// transcript and one turn lock (see orchestrator.Orchestrator).
type Conversation struct {
	ID   string           `json:"id"`
	Kind ConversationKind `json:"kind"`
	// Agent is the fixed participant of a direct conversation.
	Agent AgentID `json:"agent,omitempty"`
}

// NewDirectConversation returns a direct conversation with agent.
func NewDirectConversation(id string, agent AgentID) Conversation {
	return Conversation{ID: id, Kind: KindDirect, Agent: agent}
}

// NewChannelConversation returns a channel conversation.
func NewChannelConversation(id string) Conversation {
	return Conversation{ID: id, Kind: KindChannel}
}

// Validate checks the conversation is well formed.
func (c Conversation) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	switch c.Kind {
	case KindDirect:
		if c.Agent == "" {
			return fmt.Errorf("direct conversation %s requires an agent", c.ID)
		}
	case KindChannel:
	default:
		return fmt.Errorf("conversation %s has unknown kind %q", c.ID, c.Kind)
	}
	return nil
}

// TurnStatus is the lifecycle state of a turn.
//
//	Pending -> AwaitingSelection -> AwaitingAnswers -> {Complete, Failed}
type TurnStatus int

const (
	TurnPending TurnStatus = iota
	TurnAwaitingSelection
	TurnAwaitingAnswers
	TurnComplete
	TurnFailed
)

// String returns the lower-case name of the status.
func (s TurnStatus) String() string {
	switch s {
	case TurnPending:
		return "pending"
	case TurnAwaitingSelection:
		return "awaiting_selection"
	case TurnAwaitingAnswers:
		return "awaiting_answers"
	case TurnComplete:
		return "complete"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsActive reports whether the turn holds the conversation's turn lock.
func (s TurnStatus) IsActive() bool {
	return s == TurnAwaitingSelection || s == TurnAwaitingAnswers
}

// IsTerminal reports whether the turn has finished.
func (s TurnStatus) IsTerminal() bool { return s == TurnComplete || s == TurnFailed }
