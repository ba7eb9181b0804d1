package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"

	"github.com/hupe1980/agentchat"
	"github.com/hupe1980/agentchat/config"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
	"github.com/hupe1980/agentchat/feed"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/memory"
	"github.com/hupe1980/agentchat/orchestrator"
	"github.com/hupe1980/agentchat/transcript/badgerstore"
	"github.com/hupe1980/agentchat/transport"
	"github.com/hupe1980/agentchat/transport/a4s"
	"github.com/hupe1980/agentchat/transport/anthropic"
	"github.com/hupe1980/agentchat/transport/knowledge"
	"github.com/hupe1980/agentchat/transport/openai"
)

// app holds the wired components of one CLI invocation.
type app struct {
	cfg *config.Config
	log *logging.ChatLogger

	// dir describes agents and channels. For the a4s backend without a
	// directory file it is nil and membership comes from the API.
	dir    *directory.Static
	remote *a4s.Client
	hub    *agentchat.Hub
	db     *badger.DB
}

func newLogger(cfg *config.Config, out io.Writer) *logging.ChatLogger {
	lc := logging.DefaultLoggerConfig()
	lc.Level = logging.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = out
	lc.Component = "cli"
	return logging.NewLogger(lc)
}

func newApp(ctx context.Context, cfg *config.Config, log *logging.ChatLogger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch {
	case cfg.DirectoryFile != "":
		dir, err := directory.LoadFile(cfg.DirectoryFile)
		if err != nil {
			return nil, err
		}
		a.dir = dir
		if cfg.WatchDir {
			go func() {
				err := dir.Watch(ctx, cfg.DirectoryFile, func(o *directory.WatchOptions) {
					o.Logger = log.WithComponent("directory")
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("directory watch stopped", "error", err)
				}
			}()
		}
	case cfg.Backend != config.BackendA4S:
		dir, err := loadDemoDirectory()
		if err != nil {
			return nil, err
		}
		a.dir = dir
	}

	t, err := a.transport()
	if err != nil {
		return nil, err
	}

	var members core.Directory
	if a.dir != nil {
		members = a.dir
	} else {
		members = a.remote
	}

	var newTranscript func(string) (core.TranscriptStore, error)
	if cfg.TranscriptPath != "" {
		db, err := badgerstore.Open(cfg.TranscriptPath)
		if err != nil {
			return nil, err
		}
		a.db = db
		newTranscript = func(id string) (core.TranscriptStore, error) {
			s, err := badgerstore.New(db, id, func(o *badgerstore.Options) {
				o.Logger = log.WithComponent("transcript")
			})
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	a.hub = agentchat.New(t, func(o *agentchat.Options) {
		o.Config = orchestrator.Config{
			IncludeContext:      cfg.IncludeContext,
			MaxHistoryExchanges: cfg.MaxHistoryExchanges,
			AgentTimeout:        cfg.AgentTimeout,
			CancelGrace:         cfg.CancelGrace,
		}
		o.Directory = members
		o.Logger = log
		if newTranscript != nil {
			o.NewTranscript = newTranscript
		}
	})
	return a, nil
}

// transport builds the configured backend wrapped in retry and rate limiting.
func (a *app) transport() (core.Transport, error) {
	var (
		t         core.Transport
		retryable func(error) bool
	)
	names := func(id core.AgentID) string { return id.String() }
	persona := transport.DefaultPersona
	if a.dir != nil {
		names = a.dir.Name
		persona = transport.DirectoryPersona(a.dir)
	}

	switch a.cfg.Backend {
	case config.BackendEcho:
		t = transport.NewMock()
	case config.BackendKnowledge:
		store := memory.NewInMemoryStore()
		if _, err := knowledge.Seed(store, a.dir.Agents()); err != nil {
			return nil, fmt.Errorf("seed knowledge: %w", err)
		}
		t = knowledge.New(store)
	case config.BackendOpenAI:
		t = openai.New(func(o *openai.Options) {
			if a.cfg.OpenAIModel != "" {
				o.Model = a.cfg.OpenAIModel
			}
			o.Stream = true
			o.Persona = persona
			o.Names = names
		})
	case config.BackendAnthropic:
		t = anthropic.New(func(o *anthropic.Options) {
			if a.cfg.AnthropicModel != "" {
				o.Model = anthropicsdk.Model(a.cfg.AnthropicModel)
			}
			o.APIKey = a.cfg.AnthropicAPIKey
			o.Persona = persona
			o.Names = names
		})
	case config.BackendA4S:
		a.remote = a4s.New(func(o *a4s.Options) {
			o.BaseURL = a.cfg.A4SBaseURL
			o.Names = names
			o.Logger = a.log.WithComponent("a4s")
		})
		t = a.remote
		retryable = a4s.Retryable
	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}

	if a.cfg.MaxRetries > 0 {
		t = transport.WithRetry(t, func(o *transport.RetryOptions) {
			o.MaxRetries = uint64(a.cfg.MaxRetries)
			o.Logger = a.log.WithComponent("transport")
			if retryable != nil {
				o.Retryable = retryable
			}
		})
	}
	if a.cfg.RateLimit > 0 {
		t = transport.WithRateLimit(t, rate.Limit(a.cfg.RateLimit), a.cfg.RateBurst)
	}
	return t, nil
}

// serveFeed exposes the transcript of conv on cfg.FeedAddr until ctx is done.
func (a *app) serveFeed(ctx context.Context, conv *agentchat.Conversation) {
	if a.cfg.FeedAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/events", feed.NewHandler(conv, func(o *feed.Options) {
		o.Logger = a.log.WithComponent("feed")
	}))
	srv := &http.Server{Addr: a.cfg.FeedAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		a.log.Info("transcript feed listening", "addr", a.cfg.FeedAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("transcript feed stopped", "error", err)
		}
	}()
}

func (a *app) close(ctx context.Context) error {
	err := a.hub.CloseAll(ctx)
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	return err
}

// agentInfo returns directory details of id, falling back to the bare id.
func (a *app) agentInfo(id core.AgentID) directory.Agent {
	if a.dir != nil {
		if ag, ok := a.dir.Agent(id); ok {
			return ag
		}
	}
	return directory.Agent{ID: id}
}
