package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/humantime"
)

var agoNow string

var agoCmd = &cobra.Command{
	Use:   "ago <timestamp>",
	Short: "Print how long ago a timestamp was",
	Long: `Print a timestamp relative to now, the way labeler service updates are
reported ("3 days ago"). Accepts RFC 3339 timestamps, with or without a zone
(zone-less timestamps are UTC), and human-readable dates.

Examples:
  sentinel ago 2025-01-15T10:30:00Z
  sentinel ago "March 3 2025" --now 2025-04-01T00:00:00Z
`,
	Args: cobra.ExactArgs(1),
	RunE: runAgo,
}

func init() {
	agoCmd.Flags().StringVar(&agoNow, "now", "", "Reference time (RFC 3339); defaults to the current time")
}

func runAgo(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	if agoNow != "" {
		t, err := humantime.ParseTimestamp(agoNow)
		if err != nil {
			return config.NewConfigError(fmt.Sprintf("invalid --now: %v", err))
		}
		now = t
	}

	t, err := humantime.ParseHuman(args[0], now)
	if err != nil {
		return config.NewConfigError(fmt.Sprintf("invalid timestamp: %v", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), humantime.Since(t, now))
	return nil
}
