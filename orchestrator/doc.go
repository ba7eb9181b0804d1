// Package orchestrator implements the Turn Orchestrator: the component that
// turns one user question into one bounded, ordered sequence of transcript
// events for a conversation.
//
// # Turn lifecycle
//
// BeginTurn validates the question, acquires the conversation's single turn
// slot (failing fast with core.ErrTurnInProgress), snapshots the participants,
// appends Question and ParticipantsChosen, and dispatches one goroutine per
// participant to the Transport. It returns a *Turn handle immediately.
//
// Every participant contributes exactly one terminal event: Answer on
// success, or Error with reason "transport-failure", "timeout" or
// "cancelled". Progress events of an agent always precede its terminal event.
// When the last terminal event is appended the turn is Complete and the slot
// is released; cancellation marks the remaining participants cancelled and
// ends the turn Failed.
//
// # Usage
//
//	orch, err := orchestrator.New(core.NewDirectConversation("bob", "bob"), transport)
//	if err != nil {
//	    return err
//	}
//	defer orch.Close(context.Background())
//
//	events, stop := orch.Subscribe()
//	defer stop()
//
//	turn, err := orch.BeginTurn(ctx, "status?")
//	if err != nil {
//	    return err
//	}
//	status, err := turn.Wait(ctx)
//
// # Concurrency
//
// All appends of a turn are serialized under the turn's mutex. The
// orchestrator mutex only guards the active-turn slot; it is never held while
// a turn mutex is acquired.
package orchestrator
