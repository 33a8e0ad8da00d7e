package agent

import (
	"context"
	"iter"
	"sync"
)

// Scripted is an in-process Agent that replays fixed messages. It records
// every request so tests can assert on the prompt a task produced.
type Scripted struct {
	Messages []Message
	// Err, when set, is yielded after Messages as an *InvocationError.
	Err error

	mu       sync.Mutex
	requests []Request
}

// NewScripted returns an agent that streams text and then a result.
func NewScripted(text string) *Scripted {
	return &Scripted{
		Messages: []Message{
			{Kind: KindText, Text: text},
			{Kind: KindResult, StopReason: "end_turn", Turns: 1},
		},
	}
}

// NewDryRun returns the agent used by --dry-run: it never leaves the process
// and always answers SILENT.
func NewDryRun() *Scripted {
	return NewScripted("SILENT (dry run, research agent not invoked)\n")
}

// Name implements Agent.
func (s *Scripted) Name() string {
	return "scripted"
}

// Query implements Agent.
func (s *Scripted) Query(ctx context.Context, req Request) iter.Seq2[Message, error] {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	return func(yield func(Message, error) bool) {
		for _, m := range s.Messages {
			if err := ctx.Err(); err != nil {
				yield(Message{}, NewInvocationError(s.Name(), 1, err))
				return
			}
			if !yield(m, nil) {
				return
			}
		}
		if s.Err != nil {
			yield(Message{}, NewInvocationError(s.Name(), 1, s.Err))
		}
	}
}

// Requests returns the requests seen so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

var _ Agent = (*Scripted)(nil)
