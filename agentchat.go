// Package agentchat provides a high-level façade over the turn orchestrator
// and its collaborators (transcript store, agent selector, directory, and
// logging) for building direct and channel conversations with agents. Most
// applications interact with this package by:
//  1. Creating a Hub via New() with a Transport (and optionally a Directory)
//  2. Opening conversations with OpenDirect or OpenChannel
//  3. Asking questions through the returned Conversation's BeginTurn and
//     consuming the transcript via Subscribe or Transcript
//
// The façade owns one transcript store, selector and orchestrator per
// conversation. All defaults are safe for local development and testing;
// production deployments typically supply a durable transcript store and a
// structured logger.
package agentchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/orchestrator"
	"github.com/hupe1980/agentchat/selector"
	"github.com/hupe1980/agentchat/transcript"
)

// Options configures the Hub instance.
type Options struct {
	// Orchestrator configuration (context inclusion, timeouts, grace)
	Config orchestrator.Config

	// Directory resolves conversation membership. Optional; without it every
	// agent id is accepted and channels start with an empty selection.
	Directory core.Directory

	// NewTranscript creates the transcript store of a conversation.
	// Defaults to an in-memory store.
	NewTranscript func(conversationID string) (core.TranscriptStore, error)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Meter for orchestrator metrics (defaults to the global provider)
	Meter metric.Meter
}

// Conversation bundles the orchestrator of one conversation with its
// selector and transcript store.
type Conversation struct {
	*orchestrator.Orchestrator

	// Selector is nil for direct conversations.
	Selector *selector.Selector
	Store    core.TranscriptStore
}

// Hub is the high-level façade owning all open conversations.
type Hub struct {
	transport core.Transport
	opts      Options

	mu            sync.Mutex
	conversations map[string]*Conversation
}

// New creates a new Hub asking agents through t.
func New(t core.Transport, optFns ...func(o *Options)) *Hub {
	opts := Options{
		Config: orchestrator.DefaultConfig,
		NewTranscript: func(string) (core.TranscriptStore, error) {
			return transcript.NewInMemoryStore(), nil
		},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Hub{transport: t, opts: opts, conversations: make(map[string]*Conversation)}
}

// OpenDirect opens (or returns the already open) direct conversation with
// agent. The conversation id equals the agent id.
func (h *Hub) OpenDirect(ctx context.Context, agent core.AgentID) (*Conversation, error) {
	id := agent.String()
	if c, ok := h.Get(id); ok {
		return existing(c, core.KindDirect)
	}
	if h.opts.Directory != nil {
		ids, err := h.opts.Directory.ListAgents(ctx, id)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, agent) {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownAgent, id)
		}
	}
	return h.open(core.NewDirectConversation(id, agent), nil)
}

// OpenChannel opens (or returns the already open) channel conversation id.
// With a Directory configured, the channel must exist and every member is
// selected initially.
func (h *Hub) OpenChannel(ctx context.Context, id string) (*Conversation, error) {
	if c, ok := h.Get(id); ok {
		return existing(c, core.KindChannel)
	}
	sel := selector.New(id, h.opts.Directory)
	if h.opts.Directory != nil {
		if _, err := sel.SelectAll(ctx); err != nil {
			return nil, err
		}
	}
	return h.open(core.NewChannelConversation(id), sel)
}

// existing returns the open conversation c if it has the requested kind. A
// channel asked for as a direct chat is an unknown agent; a direct chat asked
// for as a channel is not a channel.
func existing(c *Conversation, kind core.ConversationKind) (*Conversation, error) {
	got := c.Conversation()
	switch {
	case got.Kind == kind:
		return c, nil
	case kind == core.KindDirect:
		return nil, fmt.Errorf("%w: %s is a channel", core.ErrUnknownAgent, got.ID)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrNotChannel, got.ID)
	}
}

func (h *Hub) open(conv core.Conversation, sel *selector.Selector) (*Conversation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Another Open for the same id may have won since the Get above.
	if c, ok := h.conversations[conv.ID]; ok {
		return existing(c, conv.Kind)
	}

	store, err := h.opts.NewTranscript(conv.ID)
	if err != nil {
		return nil, fmt.Errorf("open transcript %s: %w", conv.ID, err)
	}

	logger := h.opts.Logger
	if cl, ok := logger.(*logging.ChatLogger); ok {
		logger = cl.WithComponent("orchestrator").WithConversation(conv.ID, "")
	}

	o, err := orchestrator.New(conv, h.transport, func(o *orchestrator.Options) {
		o.Config = h.opts.Config
		o.Transcript = store
		o.Directory = h.opts.Directory
		o.Logger = logger
		o.Meter = h.opts.Meter
		if sel != nil {
			o.Participants = sel
		}
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	c := &Conversation{Orchestrator: o, Selector: sel, Store: store}
	h.conversations[conv.ID] = c
	h.opts.Logger.Info("conversation opened", "conversation_id", conv.ID, "kind", string(conv.Kind))
	return c, nil
}

// Get returns an open conversation.
func (h *Hub) Get(id string) (*Conversation, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conversations[id]
	return c, ok
}

// Conversations returns the ids of all open conversations, sorted.
func (h *Hub) Conversations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.conversations))
	for id := range h.conversations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close cancels the active turn of conversation id, waits for its agent
// tasks within the cancel grace and closes its transcript store.
func (h *Hub) Close(ctx context.Context, id string) error {
	h.mu.Lock()
	c, ok := h.conversations[id]
	delete(h.conversations, id)
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownConversation, id)
	}
	err := c.Close(ctx)
	return errors.Join(err, closeStore(c.Store))
}

// CloseAll closes every open conversation.
func (h *Hub) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range h.Conversations() {
		if err := h.Close(ctx, id); err != nil && !errors.Is(err, core.ErrUnknownConversation) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeStore(s core.TranscriptStore) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
