package core

// TranscriptStore is the ordered, append-only event log of one conversation.
//
// Contract:
//   - Append assigns Seq and returns the stored event; it only fails on
//     resource exhaustion (disk, memory), never for structural reasons
//   - Snapshot returns a consistent point-in-time copy; two calls without an
//     intervening Append return identical sequences
//   - Clear resets the log to empty (explicit user action only)
//   - Subscribe streams every event appended after the call until the
//     returned cancel function is invoked
type TranscriptStore interface {
	Append(ev Event) (Event, error)
	Snapshot() ([]Event, error)
	Clear() error
	Subscribe() (<-chan Event, func())
}

// ParticipantSource yields the participant set for the next turn of a
// channel conversation. Snapshot must be atomic: never a partially updated set.
type ParticipantSource interface {
	Snapshot() []AgentID
}
