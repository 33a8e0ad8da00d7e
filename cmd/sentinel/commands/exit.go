package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/config"
)

// ErrInterrupted is returned when the operator interrupts a command.
var ErrInterrupted = errors.New("interrupted")

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// ReportError prints err to w the way an operator reads it: configuration
// problems with their hint, agent failures with a stack trace.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrInterrupted) {
		fmt.Fprintln(w, "\nInterrupted")
		return
	}

	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(w, "ERROR: %s\n", cfgErr.Error())
		if hint := cfgErr.Hint(); hint != "" {
			fmt.Fprintln(w, hint)
		}
		return
	}

	fmt.Fprintf(w, "ERROR: %v\n", err)
	var invErr *agent.InvocationError
	if errors.As(err, &invErr) {
		fmt.Fprintf(w, "%+v\n", invErr)
	}
}

// signalContext returns a context cancelled with ErrInterrupted as its cause
// on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel(ErrInterrupted)
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(nil)
	}
}

// interrupted replaces err with ErrInterrupted when ctx was cancelled by a
// signal.
func interrupted(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrInterrupted) {
		return ErrInterrupted
	}
	return err
}
