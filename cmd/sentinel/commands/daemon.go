package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/lifecycle"
	"github.com/moolen/sentinel/internal/metrics"
	"github.com/moolen/sentinel/internal/scheduler"
	"github.com/moolen/sentinel/internal/task"
)

var (
	daemonTick       time.Duration
	daemonRunOnStart bool
)

const shutdownTimeout = 15 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled tasks and serve metrics",
	Long: `Run every task that has a schedule on its interval, one at a time, and
serve Prometheus metrics on /metrics. When --tasks-file is set the file is
watched and changes take effect without a restart; an invalid file is
logged and the previous tasks stay scheduled.

Example:
  sentinel daemon --tasks-file tasks.yaml --metrics-addr :9464 --run-on-start
`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	addRunFlags(daemonCmd)
	runConfig.MetricsAddr = ":9464"
	daemonCmd.Flags().StringVar(&runConfig.MetricsAddr, "metrics-addr", runConfig.MetricsAddr,
		"Listen address for /metrics and /healthz")
	daemonCmd.Flags().DurationVar(&runConfig.SessionTTL, "session-ttl", runConfig.SessionTTL,
		"How long to reuse a Bluesky session across runs")
	daemonCmd.Flags().DurationVar(&daemonTick, "tick", scheduler.DefaultTick,
		"How often to check for due tasks")
	daemonCmd.Flags().BoolVar(&daemonRunOnStart, "run-on-start", false,
		"Run every scheduled task once at startup instead of one interval later")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := newApp(runConfig, config.EnvSource{}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("Failed to close audit log: %v", err)
		}
	}()

	catalog, err := a.catalog()
	if err != nil {
		return err
	}
	if !a.cfg.DryRun {
		if _, err := config.LoadAgentCredentials(a.source); err != nil {
			return err
		}
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d, err := a.daemonComponents(catalog, daemonTick, daemonRunOnStart)
	if err != nil {
		return err
	}
	manager := d.manager

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a.logger.Info("Starting Sentinel v%s", Version)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return a.awaitShutdown(ctx, cancel, manager, sigChan)
}

// awaitShutdown blocks until a signal arrives or ctx ends, then stops every
// component. A signal still yields ErrInterrupted after the graceful stop so
// the process exits 130.
func (a *app) awaitShutdown(ctx context.Context, cancel context.CancelFunc, manager *lifecycle.Manager, sigChan <-chan os.Signal) error {
	var result error
	select {
	case sig := <-sigChan:
		a.logger.Info("Received %v, gracefully shutting down...", sig)
		result = ErrInterrupted
	case <-ctx.Done():
		result = interrupted(ctx, nil)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown: %v", err)
	}
	a.logger.Info("Shutdown complete")
	return result
}

// daemon is the set of long-running components behind the daemon command.
type daemon struct {
	manager   *lifecycle.Manager
	server    *metrics.Server
	scheduler *scheduler.Scheduler
}

// daemonComponents registers tracing, the metrics server, the scheduler and,
// with a tasks file, its watcher.
func (a *app) daemonComponents(catalog *task.Catalog, tick time.Duration, runOnStart bool) (*daemon, error) {
	manager := lifecycle.NewManager()

	var deps []lifecycle.Component
	tp, err := a.tracingProvider()
	if err != nil {
		a.logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
	} else {
		if err := manager.Register(tp); err != nil {
			return nil, err
		}
		deps = append(deps, tp)
	}

	server := metrics.NewServer(a.cfg.MetricsAddr, a.registry)
	if err := manager.Register(server); err != nil {
		return nil, err
	}
	deps = append(deps, server)

	sched, err := scheduler.New(scheduler.Config{
		Run: func(ctx context.Context, t task.Task) error {
			_, err := a.runTask(ctx, t)
			return err
		},
		Tick:       tick,
		RunOnStart: runOnStart,
	})
	if err != nil {
		return nil, err
	}
	sched.SetTasks(catalog.Scheduled())
	if err := manager.Register(sched, deps...); err != nil {
		return nil, err
	}

	if a.cfg.TasksFile != "" {
		watcher, err := config.NewTasksWatcher(config.TasksWatcherConfig{FilePath: a.cfg.TasksFile},
			func(tf *config.TasksFile) error {
				c := builtinCatalog()
				if err := mergeTasksFile(c, tf); err != nil {
					return err
				}
				sched.SetTasks(c.Scheduled())
				return nil
			})
		if err != nil {
			return nil, err
		}
		if err := manager.Register(watcher, sched); err != nil {
			return nil, err
		}
	}
	return &daemon{manager: manager, server: server, scheduler: sched}, nil
}
