// Package openai provides a core.Transport backed by the OpenAI Chat
// Completions API. Each agent is played by the model under its own persona;
// prior exchanges are rendered into the user message.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/transcript"
	"github.com/hupe1980/agentchat/transport"
)

// Interface compliance (compile-time assertion)
var _ core.Transport = (*Transport)(nil)

// Options configure the OpenAI transport.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Stream enables streaming; the first chunk is reported as progress.
	Stream  bool
	Persona transport.PersonaFunc
	Names   transcript.NameFunc
}

// Transport asks agents through OpenAI chat completions.
type Transport struct {
	client *openai.Client
	opts   Options
}

// New creates a transport using the official client configured from the
// environment (OPENAI_API_KEY).
func New(optFns ...func(o *Options)) *Transport {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a transport from an existing client
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Transport {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
		Persona:             transport.DefaultPersona,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Persona == nil {
		opts.Persona = transport.DefaultPersona
	}
	return &Transport{client: client, opts: opts}
}

// Ask implements core.Transport.
func (t *Transport) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	out := make(chan core.Reply, 2)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := t.buildParams(q)
		if t.opts.Stream {
			t.handleStreaming(ctx, params, out, errCh)
			return
		}
		t.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildParams assembles the request: the persona as system message and the
// question (with history when present) as user message.
func (t *Transport) buildParams(q core.Query) openai.ChatCompletionNewParams {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(t.opts.Persona(q.AgentID)),
		openai.UserMessage(transcript.FormatContext(q.History, q.Question, t.opts.Names)),
	}
	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               t.opts.Model,
		Temperature:         openai.Float(t.opts.Temperature),
		MaxCompletionTokens: openai.Int(t.opts.MaxCompletionTokens),
	}
}

// handleStreaming accumulates deltas, reporting progress once on the first
// content chunk.
func (t *Transport) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- core.Reply,
	errCh chan<- error,
) {
	stream := t.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()
	var textBuilder strings.Builder
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			if textBuilder.Len() == 0 {
				out <- core.Reply{Progress: true}
			}
			textBuilder.WriteString(ch.Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}
	if textBuilder.Len() == 0 {
		errCh <- fmt.Errorf("openai: empty completion")
		return
	}
	out <- core.Reply{Text: textBuilder.String()}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (t *Transport) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- core.Reply,
	errCh chan<- error,
) {
	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}
	out <- core.Reply{Text: resp.Choices[0].Message.Content}
}
