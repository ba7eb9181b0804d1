package core

import "errors"

var (
	// ErrEmptyQuestion is returned when a turn is started without question text.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrTurnInProgress is returned when a turn is started while another turn
	// of the same conversation is still active. No state is changed.
	ErrTurnInProgress = errors.New("turn in progress")

	// ErrNoParticipants is returned when a channel turn is started with an
	// empty selection. No state is changed.
	ErrNoParticipants = errors.New("no participants selected")

	// ErrResourceExhausted wraps fatal store failures. The affected turn is
	// marked failed and the turn lock released.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrTurnCancelled is reported by a turn that was cancelled before every
	// participant answered.
	ErrTurnCancelled = errors.New("turn cancelled")

	// ErrNoActiveTurn is returned by cancel operations when no turn is active.
	ErrNoActiveTurn = errors.New("no active turn")

	// ErrUnknownAgent is returned when a selection names an agent that is not
	// a member of the conversation.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNotChannel is returned by selection operations on direct conversations.
	ErrNotChannel = errors.New("conversation is not a channel")

	// ErrUnknownConversation is returned when a conversation id is not open or
	// not known to the directory.
	ErrUnknownConversation = errors.New("unknown conversation")
)
