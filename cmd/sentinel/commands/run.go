package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moolen/sentinel/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run one research task",
	Long: `Run one research task and print the agent's findings. The last line
of output is the sentinel: "ALERT: ..." when the agent found something
worth reporting, "SILENT" otherwise.

Examples:
  # Run the labeler connectivity check
  sentinel run bluesky-labelers

  # Run a task from a tasks file and render the answer as markdown
  sentinel run react-19 --tasks-file tasks.yaml --render

  # Exercise the labeler checks without calling the agent
  sentinel run bluesky-labelers --dry-run
`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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
	t, err := lookupTask(catalog, args[0])
	if err != nil {
		return err
	}

	tp, err := a.tracingProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = tp.Stop(context.Background()) }()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	_, err = a.runTask(ctx, t)
	return interrupted(ctx, err)
}
