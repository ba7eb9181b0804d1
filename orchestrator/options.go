package orchestrator

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
)

// Config defines tuning parameters for the Orchestrator's turn behaviour.
//
// Example:
//
//	cfg := orchestrator.DefaultConfig
//	cfg.AgentTimeout = 30 * time.Second
type Config struct {
	// IncludeContext passes prior exchanges to agents as history. It can be
	// toggled at runtime with SetIncludeContext.
	IncludeContext bool

	// MaxHistoryExchanges bounds the history to the last N question/answer
	// exchanges.
	MaxHistoryExchanges int

	// AgentTimeout is the per-agent deadline of one turn. Expiry is recorded
	// as Error{agent, "timeout"}; sibling agents are unaffected. Zero
	// disables the deadline.
	AgentTimeout time.Duration

	// CancelGrace bounds how long Close waits for per-agent goroutines to
	// acknowledge cancellation.
	CancelGrace time.Duration
}

// DefaultConfig provides the default configuration values:
//   - IncludeContext: true
//   - MaxHistoryExchanges: 10
//   - AgentTimeout: 60s
//   - CancelGrace: 2s
var DefaultConfig = Config{
	IncludeContext:      true,
	MaxHistoryExchanges: 10,
	AgentTimeout:        60 * time.Second,
	CancelGrace:         2 * time.Second,
}

// Options configures an Orchestrator instance using the functional options
// pattern. Every dependency has a default except the Transport, which is a
// required constructor argument.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Transcript receives every event of the conversation.
	// Defaults to an in-memory store.
	Transcript core.TranscriptStore

	// Participants yields the participant set of channel turns. Defaults to
	// a selector backed by Directory. Ignored for direct conversations.
	Participants core.ParticipantSource

	// Directory validates selections of the default selector. Optional.
	Directory core.Directory

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Meter creates the orchestrator's instruments. Defaults to the global
	// meter provider.
	Meter metric.Meter
}
