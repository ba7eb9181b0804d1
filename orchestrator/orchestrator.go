package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/selector"
	"github.com/hupe1980/agentchat/transcript"
)

var (
	// ErrClosed is returned by operations on a closed orchestrator.
	ErrClosed = errors.New("orchestrator closed")

	// ErrSelectionUnsupported is returned by Select/SelectAll when the
	// configured participant source cannot be changed through the orchestrator.
	ErrSelectionUnsupported = errors.New("participant source does not support selection")

	// ErrGraceExceeded is returned by Close when per-agent goroutines did not
	// finish within the cancel grace period. The transcript and turn slot are
	// consistent regardless.
	ErrGraceExceeded = errors.New("agent tasks still running after cancel grace")
)

// Selectable is a participant source whose set can be replaced.
type Selectable interface {
	core.ParticipantSource
	Select(ctx context.Context, ids []core.AgentID) error
	SelectAll(ctx context.Context) ([]core.AgentID, error)
}

// turnReporter is implemented by loggers with turn level helpers
// (logging.ChatLogger).
type turnReporter interface {
	LogTurn(turnID string, participants int, dur time.Duration, status string, err error)
	LogAgentReply(agent string, dur time.Duration, outcome string, err error)
}

// Orchestrator runs the turns of one conversation.
//
// Core Responsibilities:
//   - Turn slot: at most one turn is active at any instant
//   - Dispatch: one concurrent Transport call per participant
//   - Aggregation: exactly one terminal event per participant, appended in
//     arrival order
//   - Cancellation: bounded, leaving transcript and slot consistent
//
// The Orchestrator is safe for concurrent use.
type Orchestrator struct {
	conv         core.Conversation
	transport    core.Transport
	store        core.TranscriptStore
	participants core.ParticipantSource
	config       Config
	logger       logging.Logger
	metrics      *instruments

	includeContext atomic.Bool

	mu     sync.Mutex // guards active and closed
	active *Turn
	closed bool

	tasks sync.WaitGroup // per-agent and watcher goroutines
}

// New creates an orchestrator for conv that asks agents through t.
func New(conv core.Conversation, t core.Transport, optFns ...func(o *Options)) (*Orchestrator, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("orchestrator: transport is required")
	}
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Transcript == nil {
		opts.Transcript = transcript.NewInMemoryStore()
	}
	if opts.Participants == nil && conv.Kind == core.KindChannel {
		opts.Participants = selector.New(conv.ID, opts.Directory)
	}
	if opts.Config.MaxHistoryExchanges < 0 {
		opts.Config.MaxHistoryExchanges = 0
	}
	in, err := newInstruments(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: metrics: %w", err)
	}
	o := &Orchestrator{
		conv:         conv,
		transport:    t,
		store:        opts.Transcript,
		participants: opts.Participants,
		config:       opts.Config,
		logger:       logging.OrNoOp(opts.Logger),
		metrics:      in,
	}
	o.includeContext.Store(opts.Config.IncludeContext)
	return o, nil
}

// Conversation returns the conversation the orchestrator serves.
func (o *Orchestrator) Conversation() core.Conversation { return o.conv }

// BeginTurn starts a turn for question and returns without waiting for
// answers.
//
// Errors (no state is changed unless noted):
//   - core.ErrEmptyQuestion for empty or whitespace-only questions
//   - core.ErrTurnInProgress while another turn is active
//   - core.ErrNoParticipants when a channel turn has nobody selected
//   - core.ErrResourceExhausted (wrapped) when the transcript rejects an
//     append; the turn is Failed and the slot released
//   - ErrClosed after Close
//   - core.ErrTurnCancelled when the turn is cancelled before its question
//     is recorded; nothing is appended
//
// The turn's context derives from ctx: cancelling ctx cancels the turn.
func (o *Orchestrator) BeginTurn(ctx context.Context, question string) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrEmptyQuestion
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.active != nil {
		o.mu.Unlock()
		return nil, core.ErrTurnInProgress
	}
	t := newTurn(o, question)
	t.status = core.TurnAwaitingSelection
	t.participants = o.snapshotParticipants()
	if len(t.participants) == 0 {
		o.mu.Unlock()
		return nil, core.ErrNoParticipants
	}
	// The turn is cancellable from the moment it holds the slot.
	t.ctx, t.cancel = context.WithCancel(ctx)
	o.active = t
	o.tasks.Add(1) // released by the turn's watcher, see Turn.start
	o.mu.Unlock()

	if err := t.start(o.includeContext.Load()); err != nil {
		return nil, err
	}
	return t, nil
}

func (o *Orchestrator) snapshotParticipants() []core.AgentID {
	if o.conv.Kind == core.KindDirect {
		return []core.AgentID{o.conv.Agent}
	}
	if o.participants == nil {
		return nil
	}
	return lo.Uniq(o.participants.Snapshot())
}

// release frees the turn slot if t still holds it.
func (o *Orchestrator) release(t *Turn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == t {
		o.active = nil
	}
}

// ActiveTurn returns the turn currently holding the slot, or nil.
func (o *Orchestrator) ActiveTurn() *Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// CancelTurn cancels the active turn: unresolved participants get
// Error{agent, "cancelled"}, the turn ends Failed and the slot is released
// before CancelTurn returns. It returns core.ErrNoActiveTurn if idle.
func (o *Orchestrator) CancelTurn() error {
	t := o.ActiveTurn()
	if t == nil {
		return core.ErrNoActiveTurn
	}
	t.Cancel()
	return nil
}

func (o *Orchestrator) selectable() (Selectable, error) {
	if o.conv.Kind != core.KindChannel {
		return nil, core.ErrNotChannel
	}
	s, ok := o.participants.(Selectable)
	if !ok {
		return nil, ErrSelectionUnsupported
	}
	return s, nil
}

// Select replaces the participant set for future turns. An in-flight turn
// keeps its snapshot.
func (o *Orchestrator) Select(ctx context.Context, ids []core.AgentID) error {
	s, err := o.selectable()
	if err != nil {
		return err
	}
	return s.Select(ctx, ids)
}

// SelectAll selects every agent known to the directory for future turns.
func (o *Orchestrator) SelectAll(ctx context.Context) ([]core.AgentID, error) {
	s, err := o.selectable()
	if err != nil {
		return nil, err
	}
	return s.SelectAll(ctx)
}

// Participants returns the participant set the next turn would use.
func (o *Orchestrator) Participants() []core.AgentID {
	return o.snapshotParticipants()
}

// Clear empties the transcript. It is rejected with core.ErrTurnInProgress
// while a turn is active.
func (o *Orchestrator) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return core.ErrTurnInProgress
	}
	if err := o.store.Clear(); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	o.logger.Info("transcript cleared", "conversation_id", o.conv.ID)
	return nil
}

// SetIncludeContext toggles history inclusion for future turns.
func (o *Orchestrator) SetIncludeContext(on bool) { o.includeContext.Store(on) }

// IncludeContext reports whether history is passed to agents.
func (o *Orchestrator) IncludeContext() bool { return o.includeContext.Load() }

// Transcript returns a point-in-time copy of the conversation's events.
func (o *Orchestrator) Transcript() ([]core.Event, error) { return o.store.Snapshot() }

// Subscribe streams events appended from now on. Call the returned function
// to unsubscribe.
func (o *Orchestrator) Subscribe() (<-chan core.Event, func()) { return o.store.Subscribe() }

// Close cancels the active turn, rejects further turns and waits up to
// CancelGrace (or until ctx is done) for agent goroutines to stop. The
// transcript store is not closed.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	t := o.active
	o.mu.Unlock()
	if t != nil {
		t.Cancel()
	}

	done := make(chan struct{})
	go func() {
		o.tasks.Wait()
		close(done)
	}()
	var grace <-chan time.Time
	if o.config.CancelGrace > 0 {
		timer := time.NewTimer(o.config.CancelGrace)
		defer timer.Stop()
		grace = timer.C
	}
	select {
	case <-done:
		return nil
	case <-grace:
		o.logger.Warn("agent tasks outlived cancel grace", "conversation_id", o.conv.ID, "grace", o.config.CancelGrace)
		return ErrGraceExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}
