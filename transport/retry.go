package transport

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Retryable decides whether err is worth another attempt. Context errors
	// are never retried.
	Retryable func(err error) bool
	Logger    logging.Logger
}

type retrying struct {
	next core.Transport
	opts RetryOptions
}

// WithRetry wraps next so failed calls are retried with exponential backoff.
// Progress replies of every attempt are forwarded; only the last attempt's
// outcome is reported, so retries are invisible to the caller.
func WithRetry(next core.Transport, optFns ...func(o *RetryOptions)) core.Transport {
	opts := RetryOptions{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Retryable:       func(error) bool { return true },
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &retrying{next: next, opts: opts}
}

func (r *retrying) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.InitialInterval
	b.MaxInterval = r.opts.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, r.opts.MaxRetries), ctx)
}

// Ask implements core.Transport.
func (r *retrying) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	out := make(chan core.Reply, 8)
	errOut := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errOut)

		var answer string
		attempt := 0
		op := func() error {
			attempt++
			replies, errs := r.next.Ask(ctx, q)
			text, err := forward(ctx, replies, errs, out)
			if err == nil {
				answer = text
				return nil
			}
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || !r.opts.Retryable(err) {
				return backoff.Permanent(err)
			}
			r.opts.Logger.Debug("transport attempt failed", "agent_id", q.AgentID, "attempt", attempt, "error", err)
			return err
		}
		if err := backoff.Retry(op, r.backoff(ctx)); err != nil {
			errOut <- err
			return
		}
		select {
		case out <- core.Reply{Text: answer}:
		case <-ctx.Done():
			errOut <- ctx.Err()
		}
	}()
	return out, errOut
}
