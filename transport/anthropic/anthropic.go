// Package anthropic provides a core.Transport backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/transcript"
	"github.com/hupe1980/agentchat/transport"
)

// Interface compliance (compile-time assertion)
var _ core.Transport = (*Transport)(nil)

// Options configures the Anthropic transport (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Persona     transport.PersonaFunc
	Names       transcript.NameFunc
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
		Persona:     transport.DefaultPersona,
	}
}

// Transport asks agents through the Messages API.
type Transport struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new transport using the official client
func New(optFns ...func(o *Options)) *Transport {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return newTransport(&client, opts)
}

// NewFromClient creates a new transport from an existing client
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Transport {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return newTransport(client, opts)
}

func newTransport(client *anthropic.Client, opts Options) *Transport {
	if opts.Persona == nil {
		opts.Persona = transport.DefaultPersona
	}
	return &Transport{client: client, opts: opts}
}

// Ask implements core.Transport. The Messages call is not streamed, so no
// progress is reported.
func (t *Transport) Ask(ctx context.Context, q core.Query) (<-chan core.Reply, <-chan error) {
	out := make(chan core.Reply, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       t.opts.Model,
			MaxTokens:   t.opts.MaxTokens,
			Temperature: anthropic.Float(t.opts.Temperature),
			System:      []anthropic.TextBlockParam{{Text: t.opts.Persona(q.AgentID)}},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(transcript.FormatContext(q.History, q.Question, t.opts.Names))),
			},
		}

		resp, err := t.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var text strings.Builder

		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.AsText().Text)
			}
		}

		if text.Len() == 0 {
			errCh <- fmt.Errorf("anthropic: empty response (stop reason %q)", resp.StopReason)
			return
		}

		out <- core.Reply{Text: text.String()}
	}()

	return out, errCh
}
