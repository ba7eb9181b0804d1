package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the variants of a transcript Event.
type EventKind string

const (
	// EventQuestion records the user's question that opened a turn.
	EventQuestion EventKind = "question"
	// EventParticipantsChosen records the participant snapshot of a turn.
	EventParticipantsChosen EventKind = "participants_chosen"
	// EventProgress signals that an agent is still working on its answer.
	EventProgress EventKind = "progress"
	// EventAnswer is the successful terminal event of one participant.
	EventAnswer EventKind = "answer"
	// EventError is the failed terminal event of one participant.
	EventError EventKind = "error"
)

// Reasons attached to EventError.
const (
	ReasonTransportFailure = "transport-failure"
	ReasonTimeout          = "timeout"
	ReasonCancelled        = "cancelled"
)

// Event is one immutable record of a conversation transcript. Only the fields
// relevant to Kind are populated:
//   - question: Text
//   - participants_chosen: AgentIDs
//   - progress: AgentID
//   - answer: AgentID, Text
//   - error: AgentID, Reason (and optionally Detail)
//
// Seq is assigned by the TranscriptStore on append and is strictly increasing
// within one store.
type Event struct {
	ID             string    `json:"id"`
	Seq            uint64    `json:"seq"`
	ConversationID string    `json:"conversation_id"`
	TurnID         string    `json:"turn_id"`
	Kind           EventKind `json:"kind"`
	AgentID        AgentID   `json:"agent_id,omitempty"`
	AgentIDs       []AgentID `json:"agent_ids,omitempty"`
	Text           string    `json:"text,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEvent creates a bare event of the given kind bound to a conversation turn.
// Prefer the kind specific constructors below.
func NewEvent(conversationID, turnID string, kind EventKind) Event {
	return Event{
		ID:             NewID(),
		ConversationID: conversationID,
		TurnID:         turnID,
		Kind:           kind,
		Timestamp:      time.Now().UTC(),
	}
}

// NewQuestionEvent records the question text of a turn.
func NewQuestionEvent(conversationID, turnID, text string) Event {
	e := NewEvent(conversationID, turnID, EventQuestion)
	e.Text = text
	return e
}

// NewParticipantsChosenEvent records the participants snapshot. The slice is
// copied so later changes by the caller do not leak into the transcript.
func NewParticipantsChosenEvent(conversationID, turnID string, agents []AgentID) Event {
	e := NewEvent(conversationID, turnID, EventParticipantsChosen)
	e.AgentIDs = append([]AgentID(nil), agents...)
	return e
}

// NewProgressEvent records that agent is working.
func NewProgressEvent(conversationID, turnID string, agent AgentID) Event {
	e := NewEvent(conversationID, turnID, EventProgress)
	e.AgentID = agent
	return e
}

// NewAnswerEvent records the answer of agent.
func NewAnswerEvent(conversationID, turnID string, agent AgentID, text string) Event {
	e := NewEvent(conversationID, turnID, EventAnswer)
	e.AgentID = agent
	e.Text = text
	return e
}

// NewErrorEvent records the failure of agent. If err is non-nil its message is
// copied into Detail.
func NewErrorEvent(conversationID, turnID string, agent AgentID, reason string, err error) Event {
	e := NewEvent(conversationID, turnID, EventError)
	e.AgentID = agent
	e.Reason = reason
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// NewID generates a new unique identifier for events and turns.
func NewID() string { return uuid.NewString() }

// IsTerminal reports whether the event closes a participant's contribution.
func (e Event) IsTerminal() bool { return e.Kind == EventAnswer || e.Kind == EventError }

// Participants returns a copy of AgentIDs.
func (e Event) Participants() []AgentID { return append([]AgentID(nil), e.AgentIDs...) }
