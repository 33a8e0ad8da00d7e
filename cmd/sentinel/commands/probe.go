package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moolen/sentinel/internal/atproto"
	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/labeler"
)

var probeCmd = &cobra.Command{
	Use:   "probe <labeler-did>...",
	Short: "Check whether labelers are applied by the AppView",
	Long: `Log in to Bluesky and check, for each labeler DID, whether the AppView
applies that labeler to the account's own profile. The research agent is
not involved.

Example:
  sentinel probe did:plc:ar7c4by46qjdydhdevvrndac
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&runConfig.PDSURL, "pds-url", runConfig.PDSURL,
		"Bluesky PDS URL (defaults to BLUESKY_PDS_URL or "+atproto.DefaultPDSURL+")")
}

func runProbe(cmd *cobra.Command, args []string) error {
	creds, err := config.LoadBlueskyCredentials(config.EnvSource{})
	if err != nil {
		return err
	}
	a, err := newApp(runConfig, config.EnvSource{}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client := a.blueskyClient(creds)
	session, err := client.Login(ctx, creds.Handle, creds.AppPassword)
	if err != nil {
		return interrupted(ctx, fmt.Errorf("failed to log in to Bluesky: %w", err))
	}

	out := cmd.OutOrStdout()
	prober := labeler.NewProber(client, a.metrics)
	connected := 0
	for _, did := range args {
		result := prober.Probe(ctx, did, session.DID)
		if result == labeler.Reachable {
			connected++
		}
		fmt.Fprintf(out, "%s %s\n  Status: %s\n", a.styles.Status(result == labeler.Reachable), did, result)
	}
	fmt.Fprintf(out, "%d/%d connected\n", connected, len(args))
	return interrupted(ctx, nil)
}
