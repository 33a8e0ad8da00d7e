package task

import (
	"context"
	"io"
)

// Preparation is the outcome of preparing a run.
type Preparation struct {
	Prompt string
	// Skip ends the run as SILENT without invoking the agent.
	Skip bool
	// Notice is printed before SILENT when Skip is set.
	Notice string
}

// Preparer builds the prompt for a run. Progress output goes to out.
type Preparer interface {
	Prepare(ctx context.Context, out io.Writer) (Preparation, error)
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, out io.Writer) (Preparation, error)

// Prepare implements Preparer.
func (f PreparerFunc) Prepare(ctx context.Context, out io.Writer) (Preparation, error) {
	return f(ctx, out)
}

// StaticPrompt prepares a fixed prompt.
type StaticPrompt string

// Prepare implements Preparer.
func (p StaticPrompt) Prepare(ctx context.Context, out io.Writer) (Preparation, error) {
	return Preparation{Prompt: string(p)}, nil
}
