package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hupe1980/agentchat/orchestrator"

// Outcomes of one agent's contribution, used as metric attribute values.
const (
	outcomeAnswer    = "answer"
	outcomeTimeout   = "timeout"
	outcomeFailure   = "transport-failure"
	outcomeCancelled = "cancelled"
)

// Common attribute keys for metrics.
var (
	attrStatus  = attribute.Key("status")
	attrOutcome = attribute.Key("outcome")
)

type instruments struct {
	turns         metric.Int64Counter
	turnDuration  metric.Float64Histogram
	replies       metric.Int64Counter
	replyDuration metric.Float64Histogram
}

func newInstruments(m metric.Meter) (*instruments, error) {
	if m == nil {
		m = otel.Meter(meterName)
	}
	var (
		in  instruments
		err error
	)
	in.turns, err = m.Int64Counter("agentchat_turns_total", metric.WithDescription("Finished turns by final status"))
	if err != nil {
		return nil, err
	}
	in.turnDuration, err = m.Float64Histogram("agentchat_turn_duration_seconds", metric.WithDescription("Turn duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	in.replies, err = m.Int64Counter("agentchat_agent_replies_total", metric.WithDescription("Terminal agent contributions by outcome"))
	if err != nil {
		return nil, err
	}
	in.replyDuration, err = m.Float64Histogram("agentchat_agent_reply_duration_seconds", metric.WithDescription("Agent reply latency in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (in *instruments) recordTurn(status string, d time.Duration) {
	ctx := context.Background()
	in.turns.Add(ctx, 1, metric.WithAttributes(attrStatus.String(status)))
	in.turnDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrStatus.String(status)))
}

func (in *instruments) recordReply(outcome string, d time.Duration) {
	ctx := context.Background()
	in.replies.Add(ctx, 1, metric.WithAttributes(attrOutcome.String(outcome)))
	in.replyDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrOutcome.String(outcome)))
}
