package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/moolen/sentinel/internal/logging"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultMaxTokens bounds output tokens per turn.
	DefaultMaxTokens = 8192
	// DefaultMaxTurns applies when a request does not set MaxTurns.
	DefaultMaxTurns = 10
	// DefaultWebSearchMaxUses bounds server-side searches per turn.
	DefaultWebSearchMaxUses = 10

	oauthBetaHeader = "oauth-2025-04-20"

	blockServerToolUse = "server_tool_use"
)

// Config configures AnthropicAgent. Exactly one of APIKey and OAuthToken
// should be set; OAuthToken wins when both are.
type Config struct {
	APIKey           string
	OAuthToken       string
	Model            string
	MaxTokens        int
	WebSearchMaxUses int
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// DefaultConfig returns a Config with defaults filled in and no credentials.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		MaxTokens:        DefaultMaxTokens,
		WebSearchMaxUses: DefaultWebSearchMaxUses,
	}
}

// AnthropicAgent runs queries against the Anthropic Messages API, streaming
// text as it is generated.
type AnthropicAgent struct {
	client anthropic.Client
	config Config
	logger *logging.Logger
}

// NewAnthropicAgent creates an agent. Zero-valued config fields take defaults.
func NewAnthropicAgent(cfg Config) (*AnthropicAgent, error) {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.WebSearchMaxUses <= 0 {
		cfg.WebSearchMaxUses = def.WebSearchMaxUses
	}

	var opts []option.RequestOption
	switch {
	case cfg.OAuthToken != "":
		opts = append(opts,
			option.WithAuthToken(cfg.OAuthToken),
			option.WithHeader("anthropic-beta", oauthBetaHeader),
		)
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("anthropic agent requires an API key or OAuth token")
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// Failed runs are retried by the next scheduled run, not here.
	opts = append(opts, option.WithMaxRetries(0))

	return &AnthropicAgent{
		client: anthropic.NewClient(opts...),
		config: cfg,
		logger: logging.GetLogger("agent.anthropic"),
	}, nil
}

// Name returns the model identifier.
func (a *AnthropicAgent) Name() string {
	return a.config.Model
}

// Query streams one research query. When the API pauses a long-running turn
// (stop reason pause_turn) the conversation is resumed until MaxTurns.
func (a *AnthropicAgent) Query(ctx context.Context, req Request) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		ctx, span := otel.Tracer("sentinel/agent").Start(ctx, "agent.query")
		defer span.End()
		span.SetAttributes(
			attribute.String("agent.model", a.config.Model),
			attribute.Int("agent.max_turns", req.MaxTurns),
		)

		maxTurns := req.MaxTurns
		if maxTurns <= 0 {
			maxTurns = DefaultMaxTurns
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(a.config.Model),
			MaxTokens: int64(a.config.MaxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
			},
			Tools: a.tools(req.AllowedTools),
		}
		if req.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
		}

		var total Usage
		stopReason := ""
		turn := 0
		for turn < maxTurns {
			turn++
			msg, ok, err := a.streamTurn(ctx, params, yield)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "agent query failed")
				yield(Message{}, NewInvocationError(a.Name(), turn, err))
				return
			}
			if !ok {
				return
			}

			total.Add(Usage{InputTokens: msg.Usage.InputTokens, OutputTokens: msg.Usage.OutputTokens})
			stopReason = string(msg.StopReason)

			for i := range msg.Content {
				block := &msg.Content[i]
				if block.Type != blockServerToolUse {
					continue
				}
				if !yield(Message{Kind: KindToolUse, Tool: block.Name, Input: block.Input}, nil) {
					return
				}
			}

			if msg.StopReason != anthropic.StopReasonPauseTurn {
				break
			}
			a.logger.Debug("Turn %d paused, resuming", turn)
			params.Messages = append(params.Messages, msg.ToParam())
			if turn == maxTurns {
				stopReason = "max_turns"
			}
		}

		span.SetAttributes(
			attribute.Int("agent.turns", turn),
			attribute.String("agent.stop_reason", stopReason),
			attribute.Int64("agent.input_tokens", total.InputTokens),
			attribute.Int64("agent.output_tokens", total.OutputTokens),
		)
		yield(Message{Kind: KindResult, StopReason: stopReason, Turns: turn, Usage: total}, nil)
	}
}

// streamTurn runs one streaming request, yielding text deltas. ok is false
// when the consumer stopped iterating.
func (a *AnthropicAgent) streamTurn(ctx context.Context, params anthropic.MessageNewParams, yield func(Message, error) bool) (msg anthropic.Message, ok bool, err error) {
	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return msg, false, pkgerrors.Wrap(err, "accumulate stream event")
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if !yield(Message{Kind: KindText, Text: delta.Text}, nil) {
					return msg, false, nil
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return msg, false, pkgerrors.Wrap(err, "messages stream")
	}
	return msg, true, nil
}

// tools maps allowed tool names to API tool definitions. Web fetching has no
// server-side equivalent on this API and is skipped.
func (a *AnthropicAgent) tools(allowed []string) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam
	for _, name := range allowed {
		switch name {
		case ToolWebSearch:
			tools = append(tools, anthropic.ToolUnionParam{
				OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
					MaxUses: anthropic.Int(int64(a.config.WebSearchMaxUses)),
				},
			})
		case ToolWebFetch:
			a.logger.Warn("Tool %s is not available through the Messages API, skipping", name)
		default:
			a.logger.Warn("Unknown tool %q, skipping", name)
		}
	}
	return tools
}

var _ Agent = (*AnthropicAgent)(nil)
