package agent

import (
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// InvocationError is returned when the hosted agent cannot be reached or
// rejects a request. Printing it with %+v includes the stack trace captured
// where the failure was first observed.
type InvocationError struct {
	Agent string
	Turn  int
	Err   error
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// NewInvocationError wraps err, attaching a stack trace unless it already
// carries one.
func NewInvocationError(agent string, turn int, err error) *InvocationError {
	var st stackTracer
	if !errors.As(err, &st) {
		err = pkgerrors.WithStack(err)
	}
	return &InvocationError{Agent: agent, Turn: turn, Err: err}
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent %s failed on turn %d: %v", e.Agent, e.Turn, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Format implements fmt.Formatter so %+v prints the stack trace.
func (e *InvocationError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "agent %s failed on turn %d: %+v", e.Agent, e.Turn, e.Err)
		return
	}
	_, _ = io.WriteString(s, e.Error())
}

// IsInvocationError reports whether err is or wraps an *InvocationError.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
