package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/transcript"
	"github.com/hupe1980/agentchat/transport"
)

// Turn is the handle of one question/answer cycle. All methods are safe for
// concurrent use.
type Turn struct {
	o            *Orchestrator
	id           string
	question     string
	participants []core.AgentID
	startedAt    time.Time
	log          logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	status  core.TurnStatus
	err     error
	pending map[core.AgentID]struct{}
}

func newTurn(o *Orchestrator, question string) *Turn {
	id := core.NewID()
	log := o.logger
	if cl, ok := log.(*logging.ChatLogger); ok {
		log = cl.WithConversation(o.conv.ID, id)
	}
	return &Turn{
		o:         o,
		id:        id,
		question:  question,
		startedAt: time.Now(),
		log:       log,
		done:      make(chan struct{}),
		status:    core.TurnPending,
	}
}

// ID returns the turn identifier shared by all of its events.
func (t *Turn) ID() string { return t.id }

// Question returns the question that opened the turn.
func (t *Turn) Question() string { return t.question }

// Participants returns the participant snapshot taken when the turn began.
func (t *Turn) Participants() []core.AgentID {
	return append([]core.AgentID(nil), t.participants...)
}

// StartedAt returns when BeginTurn accepted the question.
func (t *Turn) StartedAt() time.Time { return t.startedAt }

// Status returns the current status.
func (t *Turn) Status() core.TurnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns why the turn failed, or nil. Per-agent failures do not fail
// the turn.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Pending returns the participants without a terminal event, in
// participant order.
func (t *Turn) Pending() []core.AgentID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.AgentID, 0, len(t.pending))
	for _, a := range t.participants {
		if _, ok := t.pending[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Done is closed once the turn reaches Complete or Failed.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Wait blocks until the turn is terminal or ctx is done.
func (t *Turn) Wait(ctx context.Context) (core.TurnStatus, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.status, t.err
	case <-ctx.Done():
		return t.Status(), ctx.Err()
	}
}

// Cancel ends the turn. Participants without a terminal event get
// Error{agent, "cancelled"} in participant order, the turn becomes Failed
// and the slot is released before Cancel returns. Cancelling a terminal
// turn is a no-op.
func (t *Turn) Cancel() { t.cancelWith(core.ErrTurnCancelled) }

// start records the opening events and dispatches one task per participant.
// The caller holds one unit of o.tasks for the watcher. A turn cancelled
// while start reads the history is left untouched.
func (t *Turn) start(includeContext bool) error {
	var (
		history []core.Event
		snapErr error
	)
	if includeContext {
		if events, err := t.o.store.Snapshot(); err != nil {
			snapErr = fmt.Errorf("snapshot transcript: %w", err)
		} else {
			history = transcript.RecentExchanges(events, t.o.config.MaxHistoryExchanges)
		}
	}

	t.mu.Lock()
	if t.status.IsTerminal() {
		err := t.err
		t.mu.Unlock()
		t.o.tasks.Done()
		return err
	}
	if snapErr != nil {
		return t.abortStartLocked(snapErr)
	}
	conv := t.o.conv.ID
	if err := t.appendLocked(core.NewQuestionEvent(conv, t.id, t.question)); err != nil {
		return t.abortStartLocked(err)
	}
	if err := t.appendLocked(core.NewParticipantsChosenEvent(conv, t.id, t.participants)); err != nil {
		return t.abortStartLocked(err)
	}
	t.pending = make(map[core.AgentID]struct{}, len(t.participants))
	for _, a := range t.participants {
		t.pending[a] = struct{}{}
	}
	t.status = core.TurnAwaitingAnswers
	t.mu.Unlock()

	t.log.Debug("turn started", "turn_id", t.id, "participants", len(t.participants), "history", len(history))

	for _, agent := range t.participants {
		t.o.tasks.Add(1)
		go t.ask(agent, history)
	}

	go func() {
		defer t.o.tasks.Done()
		select {
		case <-t.done:
		case <-t.ctx.Done():
			t.cancelWith(fmt.Errorf("%w: %w", core.ErrTurnCancelled, t.ctx.Err()))
		}
	}()
	return nil
}

func (t *Turn) abortStartLocked(err error) error {
	t.failLocked(err)
	err = t.err
	t.mu.Unlock()
	t.o.tasks.Done()
	return err
}

// ask runs one participant's Transport call and records its terminal event.
func (t *Turn) ask(agent core.AgentID, history []core.Event) {
	defer t.o.tasks.Done()

	start := time.Now()
	ctx, cancel := t.ctx, context.CancelFunc(func() {})
	if d := t.o.config.AgentTimeout; d > 0 {
		ctx, cancel = context.WithTimeout(t.ctx, d)
	}
	defer cancel()

	q := core.Query{
		ConversationID: t.o.conv.ID,
		TurnID:         t.id,
		AgentID:        agent,
		Question:       t.question,
		History:        history,
	}
	if deadline, ok := ctx.Deadline(); ok {
		q.Deadline = deadline
	}

	replies, errs := t.o.transport.Ask(ctx, q)
	text, err := transport.Await(ctx, replies, errs, func(core.Reply) { t.progress(agent) })
	dur := time.Since(start)

	switch {
	case err == nil:
		t.resolve(agent, core.NewAnswerEvent(t.o.conv.ID, t.id, agent, text), outcomeAnswer, nil, dur)
	case t.ctx.Err() != nil:
		// The turn was cancelled; cancelWith records the outcome.
	case errors.Is(err, context.DeadlineExceeded):
		t.resolve(agent, core.NewErrorEvent(t.o.conv.ID, t.id, agent, core.ReasonTimeout, err), outcomeTimeout, err, dur)
	default:
		t.resolve(agent, core.NewErrorEvent(t.o.conv.ID, t.id, agent, core.ReasonTransportFailure, err), outcomeFailure, err, dur)
	}
}

func (t *Turn) progress(agent core.AgentID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isPendingLocked(agent) {
		return
	}
	if err := t.appendLocked(core.NewProgressEvent(t.o.conv.ID, t.id, agent)); err != nil {
		t.failLocked(err)
	}
}

func (t *Turn) resolve(agent core.AgentID, ev core.Event, outcome string, cause error, dur time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isPendingLocked(agent) {
		return
	}
	if err := t.appendLocked(ev); err != nil {
		t.failLocked(err)
		return
	}
	delete(t.pending, agent)
	t.recordReply(agent, outcome, cause, dur)
	if len(t.pending) == 0 {
		t.finishLocked(core.TurnComplete, nil)
	}
}

func (t *Turn) cancelWith(cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return
	}
	t.cancel()
	dur := time.Since(t.startedAt)
	for _, agent := range t.participants {
		if _, ok := t.pending[agent]; !ok {
			continue
		}
		ev := core.NewErrorEvent(t.o.conv.ID, t.id, agent, core.ReasonCancelled, nil)
		if err := t.appendLocked(ev); err != nil {
			t.failLocked(err)
			return
		}
		delete(t.pending, agent)
		t.recordReply(agent, outcomeCancelled, nil, dur)
	}
	t.finishLocked(core.TurnFailed, cause)
}

func (t *Turn) isPendingLocked(agent core.AgentID) bool {
	if t.status != core.TurnAwaitingAnswers {
		return false
	}
	_, ok := t.pending[agent]
	return ok
}

func (t *Turn) appendLocked(ev core.Event) error {
	_, err := t.o.store.Append(ev)
	return err
}

// failLocked ends the turn after a transcript failure. No further events
// are appended.
func (t *Turn) failLocked(err error) {
	if !errors.Is(err, core.ErrResourceExhausted) {
		err = fmt.Errorf("%w: %w", core.ErrResourceExhausted, err)
	}
	t.log.Error("transcript append failed", "turn_id", t.id, "error", err)
	t.finishLocked(core.TurnFailed, err)
}

func (t *Turn) finishLocked(status core.TurnStatus, err error) {
	t.status = status
	t.err = err
	t.pending = nil
	if t.cancel != nil {
		t.cancel()
	}
	t.o.release(t)
	close(t.done)

	dur := time.Since(t.startedAt)
	t.o.metrics.recordTurn(status.String(), dur)
	if r, ok := t.log.(turnReporter); ok {
		r.LogTurn(t.id, len(t.participants), dur, status.String(), err)
		return
	}
	t.log.Info("turn finished", "turn_id", t.id, "status", status.String(), "duration", dur, "error", err)
}

func (t *Turn) recordReply(agent core.AgentID, outcome string, err error, dur time.Duration) {
	t.o.metrics.recordReply(outcome, dur)
	if r, ok := t.log.(turnReporter); ok {
		r.LogAgentReply(agent.String(), dur, outcome, err)
		return
	}
	t.log.Debug("agent finished", "turn_id", t.id, "agent_id", agent, "outcome", outcome, "error", err)
}
