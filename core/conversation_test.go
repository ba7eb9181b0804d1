package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_Validate(t *testing.T) {
	assert.NoError(t, NewDirectConversation("d1", "bob").Validate())
	assert.NoError(t, NewChannelConversation("c1").Validate())
	assert.Error(t, Conversation{Kind: KindChannel}.Validate())
	assert.Error(t, Conversation{ID: "d2", Kind: KindDirect}.Validate())
	assert.Error(t, Conversation{ID: "x", Kind: "group"}.Validate())
}

func TestTurnStatus_Predicates(t *testing.T) {
	tests := []struct {
		status   TurnStatus
		name     string
		active   bool
		terminal bool
	}{
		{TurnPending, "pending", false, false},
		{TurnAwaitingSelection, "awaiting_selection", true, false},
		{TurnAwaitingAnswers, "awaiting_answers", true, false},
		{TurnComplete, "complete", false, true},
		{TurnFailed, "failed", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
	assert.Equal(t, "unknown", TurnStatus(42).String())
}

func TestTransportFunc(t *testing.T) {
	ok := TransportFunc(func(_ context.Context, q Query) (string, error) {
		return "echo: " + q.Question, nil
	})
	replies, errs := ok.Ask(context.Background(), Query{AgentID: "bob", Question: "hi"})
	r, open := <-replies
	require.True(t, open)
	assert.False(t, r.Progress)
	assert.Equal(t, "echo: hi", r.Text)
	_, open = <-errs
	assert.False(t, open)

	sentinel := errors.New("down")
	failing := TransportFunc(func(context.Context, Query) (string, error) { return "", sentinel })
	replies, errs = failing.Ask(context.Background(), Query{AgentID: "bob"})
	err := <-errs
	assert.ErrorIs(t, err, sentinel)
	_, open = <-replies
	assert.False(t, open)
}
