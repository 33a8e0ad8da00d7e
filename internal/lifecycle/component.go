// Package lifecycle starts and stops the daemon's long-running pieces (the
// tracing exporter, the metrics server, the tasks watcher and the scheduler)
// in dependency order.
package lifecycle

import "context"

// Component is something the Manager starts and stops.
type Component interface {
	// Start brings the component up. Long-running work belongs in a
	// goroutine; Start returns once the component is usable.
	Start(ctx context.Context) error

	// Stop shuts the component down, finishing in-flight work before ctx's
	// deadline where possible.
	Stop(ctx context.Context) error

	// Name is used in logs and error messages. Must be non-empty.
	Name() string
}
