package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/config"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 1, ExitCode(config.NewConfigError("missing")))
	assert.Equal(t, 130, ExitCode(ErrInterrupted))
	assert.Equal(t, 130, ExitCode(fmt.Errorf("run: %w", ErrInterrupted)))
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "interrupted", err: ErrInterrupted, want: "\nInterrupted\n"},
		{
			name: "config error with hint",
			err: config.NewConfigError("No Claude authentication configured").
				WithHint("Set either CLAUDE_CODE_OAUTH_TOKEN or ANTHROPIC_API_KEY"),
			want: "ERROR: No Claude authentication configured\nSet either CLAUDE_CODE_OAUTH_TOKEN or ANTHROPIC_API_KEY\n",
		},
		{
			name: "wrapped config error",
			err:  fmt.Errorf("load: %w", config.NewConfigError("bad file")),
			want: "ERROR: bad file\n",
		},
		{name: "plain error", err: errors.New("boom"), want: "ERROR: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ReportError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReportError_InvocationErrorPrintsStack(t *testing.T) {
	var buf bytes.Buffer
	ReportError(&buf, agent.NewInvocationError("claude", 2, errors.New("overloaded")))

	out := buf.String()
	assert.Contains(t, out, "ERROR: agent claude failed on turn 2: overloaded\n")
	assert.Contains(t, out, "TestReportError_InvocationErrorPrintsStack")
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	other := errors.New("context canceled")

	assert.Equal(t, other, interrupted(ctx, other))
	cancel(ErrInterrupted)
	assert.ErrorIs(t, interrupted(ctx, other), ErrInterrupted)
	assert.ErrorIs(t, interrupted(ctx, nil), ErrInterrupted)
}
