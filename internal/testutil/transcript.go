package testutil

import (
	"testing"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// Kinds returns the kinds of events in order.
func Kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

// ForAgent returns the events of a single agent in order.
func ForAgent(events []core.Event, agent core.AgentID) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.AgentID == agent {
			out = append(out, ev)
		}
	}
	return out
}

// ForTurn returns the events of a single turn in order.
func ForTurn(events []core.Event, turnID string) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.TurnID == turnID {
			out = append(out, ev)
		}
	}
	return out
}

// Terminals returns the answer and error events in order.
func Terminals(events []core.Event) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.IsTerminal() {
			out = append(out, ev)
		}
	}
	return out
}

// Collect reads n events from ch or fails the test after timeout.
func Collect(t *testing.T, ch <-chan core.Event, n int, timeout time.Duration) []core.Event {
	t.Helper()
	out := make([]core.Event, 0, n)
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d of %d events", len(out), n)
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}
