// Package a4s talks to the channel chat HTTP API: it implements
// core.Transport by posting one question per agent and core.Directory by
// reading channel membership.
//
// Endpoints (relative to the base URL, default http://localhost:8000/api/v1):
//
//	GET  /channels/{id}          -> {"id","name","description","agent_ids":[...]}
//	POST /channels/{id}/chat     <- {"message","agent_ids":[agent]}
//	                             -> {"results":[{"agent_id","agent_name","response","error"}]}
//	POST /agents/{id}/chat       <- {"message"} -> {"agent_id","agent_name","response","error"}
package a4s

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/transcript"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Transport = (*Client)(nil)
	_ core.Directory = (*Client)(nil)
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// Options configures the client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// IncludeHistory renders Query.History into the message.
	IncludeHistory bool
	Names          transcript.NameFunc
	Logger         logging.Logger
}

// Client is an a4s API client.
type Client struct {
	base string
	http *http.Client
	opts Options
	log  logging.Logger
}

// New creates a client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{BaseURL: DefaultBaseURL, IncludeHistory: true, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: opts.HTTPClient,
		opts: opts,
		log:  logging.OrNoOp(opts.Logger),
	}
}

// Channel is the channel resource.
type Channel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	AgentIDs    []core.AgentID `json:"agent_ids"`
}

type chatRequest struct {
	Message  string         `json:"message"`
	AgentIDs []core.AgentID `json:"agent_ids,omitempty"`
}

// Result is one agent's entry in a chat response.
type Result struct {
	AgentID   core.AgentID `json:"agent_id"`
	AgentName string       `json:"agent_name"`
	Response  string       `json:"response"`
	Error     string       `json:"error"`
}

type chatResponse struct {
	Results []Result `json:"results"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("a4s: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// GetChannel fetches a channel.
func (c *Client) GetChannel(ctx context.Context, id string) (Channel, error) {
	var ch Channel
	err := c.do(ctx, http.MethodGet, "/channels/"+url.PathEscape(id), nil, &ch)
	return ch, err
}

// ListAgents implements core.Directory for channel conversations.
func (c *Client) ListAgents(ctx context.Context, conversationID string) ([]core.AgentID, error) {
	ch, err := c.GetChannel(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return ch.AgentIDs, nil
}

// Ask implements core.Transport. Conversations whose id equals the agent id
// are treated as direct chats.
func (c *Client) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	out := make(chan core.Reply, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		res, err := c.chat(ctx, q)
		if err != nil {
			errCh <- err
			return
		}
		if res.Error != "" {
			errCh <- fmt.Errorf("a4s: agent %s: %s", q.AgentID, res.Error)
			return
		}
		out <- core.Reply{Text: res.Response}
	}()
	return out, errCh
}

func (c *Client) chat(ctx context.Context, q core.Query) (Result, error) {
	message := q.Question
	if c.opts.IncludeHistory {
		message = transcript.FormatContext(q.History, q.Question, c.opts.Names)
	}
	if q.ConversationID == "" || q.ConversationID == string(q.AgentID) {
		var res Result
		err := c.do(ctx, http.MethodPost, "/agents/"+url.PathEscape(string(q.AgentID))+"/chat", chatRequest{Message: message}, &res)
		return res, err
	}
	var resp chatResponse
	req := chatRequest{Message: message, AgentIDs: []core.AgentID{q.AgentID}}
	if err := c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(q.ConversationID)+"/chat", req, &resp); err != nil {
		return Result{}, err
	}
	for _, r := range resp.Results {
		if r.AgentID == q.AgentID {
			return r, nil
		}
	}
	return Result{}, fmt.Errorf("a4s: no result for agent %s", q.AgentID)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("a4s: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("a4s: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("a4s request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("a4s: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("a4s: decode response: %w", err)
	}
	return nil
}

// Retryable reports whether err returned by the client is transient. It is
// suitable as transport.RetryOptions.Retryable.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
