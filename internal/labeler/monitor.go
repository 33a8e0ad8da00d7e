package labeler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moolen/sentinel/internal/atproto"
	"github.com/moolen/sentinel/internal/humantime"
	"github.com/moolen/sentinel/internal/logging"
	"github.com/moolen/sentinel/internal/metrics"
	"github.com/moolen/sentinel/internal/render"
	"github.com/moolen/sentinel/internal/task"
)

// NoSubscriptionsNotice is printed when the account has no labeler subscriptions.
const NoSubscriptionsNotice = "No labeler subscriptions found."

const ruleWidth = 70

// Directory is the subset of the XRPC client the monitor needs.
type Directory interface {
	ProfileFetcher
	Login(ctx context.Context, identifier, password string) (*atproto.Session, error)
	LabelerSubscriptions(ctx context.Context) ([]string, error)
	GetLabelerServices(ctx context.Context, dids []string) ([]atproto.LabelerView, error)
}

// MonitorConfig wires a Monitor.
type MonitorConfig struct {
	Client   Directory
	Handle   string
	Password string
	// Instructions precede the report in the prompt; ResearchPrompt when empty.
	Instructions string
	Styles       *render.Styles
	Metrics      *metrics.Metrics
}

// Monitor prepares the bluesky-labelers task: it logs in, probes every
// subscribed labeler and builds the research prompt from the results.
type Monitor struct {
	client       Directory
	handle       string
	password     string
	instructions string
	prober       *Prober
	styles       *render.Styles
	metrics      *metrics.Metrics
	now          func() time.Time
	logger       *logging.Logger
}

// NewMonitor creates a Monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	instructions := cfg.Instructions
	if instructions == "" {
		instructions = ResearchPrompt
	}
	styles := cfg.Styles
	if styles == nil {
		styles = render.Plain()
	}
	return &Monitor{
		client:       cfg.Client,
		handle:       cfg.Handle,
		password:     cfg.Password,
		instructions: instructions,
		prober:       NewProber(cfg.Client, cfg.Metrics),
		styles:       styles,
		metrics:      cfg.Metrics,
		now:          time.Now,
		logger:       logging.GetLogger("labeler.monitor"),
	}
}

// Prepare implements task.Preparer.
func (m *Monitor) Prepare(ctx context.Context, out io.Writer) (task.Preparation, error) {
	fmt.Fprintln(out, "Connecting to Bluesky...")
	session, err := m.client.Login(ctx, m.handle, m.password)
	if err != nil {
		return task.Preparation{}, fmt.Errorf("login as %s: %w", m.handle, err)
	}
	fmt.Fprintf(out, "Logged in as: %s (%s)\n", m.handle, session.DID)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Fetching labeler subscriptions...")
	dids, err := m.client.LabelerSubscriptions(ctx)
	if err != nil {
		return task.Preparation{}, fmt.Errorf("fetch labeler subscriptions: %w", err)
	}
	if len(dids) == 0 {
		m.metrics.SetLabelersChecked(0)
		return task.Preparation{Skip: true, Notice: NoSubscriptionsNotice}, nil
	}
	fmt.Fprintf(out, "Found %d subscribed labeler(s)\n", len(dids))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Fetching labeler details...")
	views, err := m.client.GetLabelerServices(ctx, dids)
	if err != nil {
		return task.Preparation{}, fmt.Errorf("fetch labeler details: %w", err)
	}

	statuses := m.Check(ctx, out, session.DID, views)

	report := BuildReport(statuses, m.now())
	return task.Preparation{Prompt: BuildPrompt(m.instructions, report)}, nil
}

// Check probes each labeler in order, printing one block per labeler and a
// summary line.
func (m *Monitor) Check(ctx context.Context, out io.Writer, userDID string, views []atproto.LabelerView) []LabelerStatus {
	fmt.Fprintln(out, "Checking AppView connectivity...")
	fmt.Fprintln(out, m.styles.Rule(ruleWidth))

	now := m.now()
	statuses := make([]LabelerStatus, 0, len(views))
	for _, view := range views {
		status := LabelerStatus{
			Name:           view.DisplayNameOrHandle(),
			Handle:         view.Creator.Handle,
			DID:            view.Creator.DID,
			Connectivity:   m.prober.Probe(ctx, view.Creator.DID, userDID),
			ServiceUpdated: m.serviceUpdated(view, now),
		}

		fmt.Fprintf(out, "%s %s (@%s)\n", m.styles.Status(status.Connected()), status.Name, status.Handle)
		fmt.Fprintf(out, "  Service updated: %s\n", status.ServiceUpdated)
		fmt.Fprintf(out, "  Status: %s\n", status.Connectivity)
		fmt.Fprintln(out)

		statuses = append(statuses, status)
	}

	fmt.Fprintln(out, m.styles.Rule(ruleWidth))
	connected := CountConnected(statuses)
	fmt.Fprintf(out, "Connectivity check complete: %d/%d connected\n", connected, len(statuses))
	fmt.Fprintln(out)

	m.metrics.SetLabelersChecked(len(statuses))
	m.logger.InfoWithFields("Labeler connectivity checked",
		logging.Field("total", len(statuses)),
		logging.Field("connected", connected),
	)
	return statuses
}

func (m *Monitor) serviceUpdated(view atproto.LabelerView, now time.Time) string {
	if view.IndexedAt == "" {
		return "Unknown"
	}
	t, err := humantime.ParseTimestamp(view.IndexedAt)
	if err != nil {
		m.logger.Warn("Labeler %s has unparseable indexedAt %q: %v", view.Creator.DID, view.IndexedAt, err)
		return "Unknown"
	}
	return humantime.Since(t, now)
}

var _ task.Preparer = (*Monitor)(nil)
