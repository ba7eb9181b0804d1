package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/transport"
)

func newClient(t *testing.T, status int, body string, seen *map[string]any) *anthropic.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestTransport_Answer(t *testing.T) {
	var seen map[string]any
	client := newClient(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
		"content":[{"type":"text","text":"Deploys are frozen."}],
		"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":4}}`, &seen)
	tr := NewFromClient(client, func(o *Options) {
		o.Persona = func(id core.AgentID) string { return "you are " + string(id) }
	})

	replies, errs := tr.Ask(context.Background(), core.Query{AgentID: "alice", Question: "deploy status?"})
	text, err := transport.Await(context.Background(), replies, errs, nil)
	require.NoError(t, err)
	assert.Equal(t, "Deploys are frozen.", text)

	system, ok := seen["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "you are alice", system[0].(map[string]any)["text"])
}

func TestTransport_APIError(t *testing.T) {
	client := newClient(t, http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, nil)
	tr := NewFromClient(client)

	replies, errs := tr.Ask(context.Background(), core.Query{AgentID: "alice", Question: "?"})
	_, err := transport.Await(context.Background(), replies, errs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic api error")
}
