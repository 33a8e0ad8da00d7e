package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/task"
)

var tasksFile string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect the task catalog",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and configured tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(tasksFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tSCHEDULE\tDESCRIPTION")
		for _, t := range c.List() {
			schedule := config.FromTask(t).Schedule
			if schedule == "" {
				schedule = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Kind, schedule, t.Description)
		}
		return w.Flush()
	},
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Print a task in tasks file format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(tasksFile)
		if err != nil {
			return err
		}
		t, err := lookupTask(c, args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(config.FromTask(t)); err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	tasksCmd.PersistentFlags().StringVar(&tasksFile, "tasks-file", "",
		"YAML file with additional task definitions")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
}

func loadCatalog(path string) (*task.Catalog, error) {
	c := builtinCatalog()
	if path == "" {
		return c, nil
	}
	tf, err := config.LoadTasksFile(path)
	if err != nil {
		return nil, err
	}
	if err := mergeTasksFile(c, tf); err != nil {
		return nil, err
	}
	return c, nil
}
