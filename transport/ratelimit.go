package transport

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/hupe1980/agentchat/core"
)

// RateLimitOptions configures WithRateLimit.
type RateLimitOptions struct {
	// PerAgent gives every agent its own bucket instead of one shared bucket.
	PerAgent bool
}

type rateLimited struct {
	next  core.Transport
	limit rate.Limit
	burst int
	opts  RateLimitOptions

	mu       sync.Mutex
	shared   *rate.Limiter
	perAgent map[core.AgentID]*rate.Limiter
}

// WithRateLimit wraps next so calls wait for a token from a bucket refilled at
// limit per second with the given burst. Waiting honours the call context.
func WithRateLimit(next core.Transport, limit rate.Limit, burst int, optFns ...func(o *RateLimitOptions)) core.Transport {
	var opts RateLimitOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &rateLimited{
		next:     next,
		limit:    limit,
		burst:    burst,
		opts:     opts,
		shared:   rate.NewLimiter(limit, burst),
		perAgent: make(map[core.AgentID]*rate.Limiter),
	}
}

func (r *rateLimited) limiter(agent core.AgentID) *rate.Limiter {
	if !r.opts.PerAgent {
		return r.shared
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.perAgent[agent]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.perAgent[agent] = l
	}
	return l
}

// Ask implements core.Transport.
func (r *rateLimited) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	out := make(chan core.Reply, 8)
	errOut := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errOut)
		if err := r.limiter(q.AgentID).Wait(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
				err = ctx.Err()
			case hasDeadline(ctx):
				// Wait gives up early when the token would arrive after the deadline.
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			errOut <- fmt.Errorf("rate limit: %w", err)
			return
		}
		replies, errs := r.next.Ask(ctx, q)
		text, err := forward(ctx, replies, errs, out)
		if err != nil {
			errOut <- err
			return
		}
		select {
		case out <- core.Reply{Text: text}:
		case <-ctx.Done():
			errOut <- ctx.Err()
		}
	}()
	return out, errOut
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}
