package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/agentchat/core"
)

func flaky(failures int32, err error) (core.Transport, *atomic.Int32) {
	var calls atomic.Int32
	return core.TransportFunc(func(context.Context, core.Query) (string, error) {
		if calls.Add(1) <= failures {
			return "", err
		}
		return "ok", nil
	}), &calls
}

func fastRetry(o *RetryOptions) {
	o.InitialInterval = time.Millisecond
	o.MaxInterval = 2 * time.Millisecond
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	next, calls := flaky(2, errors.New("503"))
	tr := WithRetry(next, fastRetry)

	text, _, err := ask(t, tr, context.Background(), "alice", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithRetry_GivesUp(t *testing.T) {
	last := errors.New("still down")
	next, calls := flaky(10, last)
	tr := WithRetry(next, fastRetry, func(o *RetryOptions) { o.MaxRetries = 1 })

	_, _, err := ask(t, tr, context.Background(), "alice", "q")
	assert.ErrorIs(t, err, last)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWithRetry_NonRetryable(t *testing.T) {
	fatal := errors.New("401")
	next, calls := flaky(10, fatal)
	tr := WithRetry(next, fastRetry, func(o *RetryOptions) {
		o.Retryable = func(err error) bool { return !errors.Is(err, fatal) }
	})

	_, _, err := ask(t, tr, context.Background(), "alice", "q")
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRetry_DoesNotRetryDeadline(t *testing.T) {
	m := NewMock().On("slow", Script{Block: true})
	tr := WithRetry(m, fastRetry)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	replies, errs := tr.Ask(ctx, core.Query{AgentID: "slow"})
	_, err := Await(context.Background(), replies, errs, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, m.CallCount("slow"))
}

func TestWithRetry_ForwardsProgress(t *testing.T) {
	tr := WithRetry(NewMock().On("alice", Script{Answer: "a", Progress: 3}), fastRetry)
	text, progress, err := ask(t, tr, context.Background(), "alice", "q")
	require.NoError(t, err)
	assert.Equal(t, "a", text)
	assert.Equal(t, 3, progress)
}

func TestWithRateLimit_Throttles(t *testing.T) {
	tr := WithRateLimit(NewMock(), rate.Every(30*time.Millisecond), 1)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, err := ask(t, tr, context.Background(), "alice", "q")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWithRateLimit_PerAgent(t *testing.T) {
	tr := WithRateLimit(NewMock(), rate.Every(time.Hour), 1, func(o *RateLimitOptions) { o.PerAgent = true })
	for _, agent := range []core.AgentID{"a", "b", "c"} {
		_, _, err := ask(t, tr, context.Background(), agent, "q")
		require.NoError(t, err)
	}
}

func TestWithRateLimit_DeadlineIsTimeout(t *testing.T) {
	tr := WithRateLimit(NewMock(), rate.Every(time.Hour), 1)
	_, _, err := ask(t, tr, context.Background(), "a", "q")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	replies, errs := tr.Ask(ctx, core.Query{AgentID: "a"})
	_, err = Await(context.Background(), replies, errs, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
