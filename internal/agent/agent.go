// Package agent defines the research agent capability: a prompt goes in and
// a stream of messages comes out. The hosted implementation talks to the
// Anthropic Messages API with server-side web search; Scripted replays canned
// output for tests and dry runs.
package agent

import (
	"context"
	"encoding/json"
	"iter"
)

// Tool names accepted in Request.AllowedTools.
const (
	ToolWebSearch = "WebSearch"
	ToolWebFetch  = "WebFetch"
)

// KnownTools lists every tool name a task may request.
var KnownTools = []string{ToolWebSearch, ToolWebFetch}

// Request is one research query.
type Request struct {
	Prompt       string
	SystemPrompt string
	// MaxTurns bounds how many times a paused turn is resumed.
	MaxTurns     int
	AllowedTools []string
}

// Kind tells what a Message carries.
type Kind int

const (
	KindText Kind = iota
	KindToolUse
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindToolUse:
		return "tool_use"
	case KindResult:
		return "result"
	default:
		return "unknown"
	}
}

// Message is one streamed event. Text chunks arrive in order and concatenate
// to the full answer; exactly one KindResult message ends a successful stream.
type Message struct {
	Kind       Kind
	Text       string
	Tool       string
	Input      json.RawMessage
	StopReason string
	Turns      int
	Usage      Usage
}

// Usage counts tokens across all turns of a query.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Agent runs research queries. The returned sequence stops at the first
// error, which is always an *InvocationError.
type Agent interface {
	Query(ctx context.Context, req Request) iter.Seq2[Message, error]
	Name() string
}
