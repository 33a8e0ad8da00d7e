package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/agent/audit"
	"github.com/moolen/sentinel/internal/atproto"
	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/labeler"
	"github.com/moolen/sentinel/internal/logging"
	"github.com/moolen/sentinel/internal/metrics"
	"github.com/moolen/sentinel/internal/render"
	"github.com/moolen/sentinel/internal/task"
	"github.com/moolen/sentinel/internal/tracing"
)

const xrpcTimeout = 30 * time.Second

// runConfig is bound to the flags shared by run, probe and daemon.
var runConfig = config.Config{
	Model:      agent.DefaultModel,
	MaxTokens:  agent.DefaultMaxTokens,
	SessionTTL: atproto.DefaultSessionTTL,
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&runConfig.TasksFile, "tasks-file", runConfig.TasksFile,
		"YAML file with additional task definitions")
	f.StringVar(&runConfig.Model, "model", runConfig.Model, "Claude model to use")
	f.IntVar(&runConfig.MaxTokens, "max-tokens", runConfig.MaxTokens, "Maximum output tokens per agent turn")
	f.StringVar(&runConfig.AuditLog, "audit-log", runConfig.AuditLog,
		"Path to write the run audit log (JSONL format). If empty, audit logging is disabled.")
	f.StringVar(&runConfig.Pushgateway, "pushgateway", runConfig.Pushgateway,
		"Prometheus Pushgateway URL to push run metrics to")
	f.StringVar(&runConfig.TracingEndpoint, "tracing-endpoint", runConfig.TracingEndpoint,
		"OTLP gRPC endpoint for traces (e.g. otel-collector:4317); tracing is disabled when empty")
	f.StringVar(&runConfig.TracingCAPath, "tracing-ca", runConfig.TracingCAPath,
		"CA certificate for TLS to the tracing endpoint")
	f.StringVar(&runConfig.PDSURL, "pds-url", runConfig.PDSURL,
		"Bluesky PDS URL (defaults to BLUESKY_PDS_URL or "+atproto.DefaultPDSURL+")")
	f.BoolVar(&runConfig.Render, "render", runConfig.Render,
		"Render agent output as markdown once complete instead of streaming it")
	f.BoolVar(&runConfig.DryRun, "dry-run", runConfig.DryRun,
		"Do not call the research agent; every run answers SILENT")
}

// agentFactory builds the research agent from credentials.
type agentFactory func(cfg config.Config, creds config.AgentCredentials) (agent.Agent, error)

func newAnthropicAgent(cfg config.Config, creds config.AgentCredentials) (agent.Agent, error) {
	ac := agent.DefaultConfig()
	ac.Model = cfg.Model
	ac.MaxTokens = cfg.MaxTokens
	ac.APIKey = creds.APIKey()
	ac.OAuthToken = creds.OAuthToken()
	a, err := agent.NewAnthropicAgent(ac)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// app holds everything a task run needs. One app serves one command
// invocation; the daemon shares it across scheduled runs.
type app struct {
	cfg      config.Config
	source   config.Source
	out      io.Writer
	styles   *render.Styles
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	audit    *audit.Logger
	sessions *atproto.SessionCache
	newAgent agentFactory
	logger   *logging.Logger
}

func newApp(cfg config.Config, src config.Source, out io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	a := &app{
		cfg:      cfg,
		source:   src,
		out:      out,
		styles:   render.ForWriter(out),
		registry: registry,
		metrics:  metrics.NewMetrics(registry),
		newAgent: newAnthropicAgent,
		logger:   logging.GetLogger("commands"),
	}

	if cfg.SessionTTL > 0 {
		cache, err := atproto.NewSessionCache(4, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		a.sessions = cache
	}

	if cfg.AuditLog != "" {
		l, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		a.audit = l
	}
	return a, nil
}

func (a *app) Close() error {
	if a.audit == nil {
		return nil
	}
	return a.audit.Close()
}

// catalog returns the built-in tasks merged with the tasks file, if any.
func (a *app) catalog() (*task.Catalog, error) {
	return loadCatalog(a.cfg.TasksFile)
}

func builtinCatalog() *task.Catalog {
	return task.NewCatalog(task.Template(), labeler.Task())
}

func mergeTasksFile(c *task.Catalog, tf *config.TasksFile) error {
	tasks, err := tf.ToTasks()
	if err != nil {
		return err
	}
	if err := c.Merge(tasks); err != nil {
		return config.NewConfigError(err.Error())
	}
	return nil
}

// plan is a run whose credentials have been resolved and that has not yet
// touched the network.
type plan struct {
	task     task.Task
	auth     string
	agent    agent.Agent
	preparer task.Preparer
}

// plan resolves credentials and builds the agent and preparer for t.
// Missing credentials surface as *config.ConfigError.
func (a *app) plan(t task.Task) (*plan, error) {
	p := &plan{task: t, preparer: task.StaticPrompt(t.Prompt)}

	var bsky config.BlueskyCredentials
	if t.Kind == task.KindBlueskyLabelers {
		var err error
		if bsky, err = config.LoadBlueskyCredentials(a.source); err != nil {
			return nil, err
		}
	}

	claude := "Dry run"
	var creds config.AgentCredentials
	if !a.cfg.DryRun {
		var err error
		if creds, err = config.LoadAgentCredentials(a.source); err != nil {
			return nil, err
		}
		claude = string(creds.Method)
	}

	p.auth = claude
	if t.Kind == task.KindBlueskyLabelers {
		p.auth = fmt.Sprintf("Bluesky (%s) + Claude (%s)", bsky.Handle, claude)
		p.preparer = labeler.NewMonitor(labeler.MonitorConfig{
			Client:       a.blueskyClient(bsky),
			Handle:       bsky.Handle,
			Password:     bsky.AppPassword,
			Instructions: t.Prompt,
			Styles:       a.styles,
			Metrics:      a.metrics,
		})
	}

	if a.cfg.DryRun {
		p.agent = agent.NewDryRun()
		return p, nil
	}
	ag, err := a.newAgent(a.cfg, creds)
	if err != nil {
		return nil, err
	}
	p.agent = ag
	return p, nil
}

// blueskyClient resolves the PDS host: flag, then environment, then default.
func (a *app) blueskyClient(creds config.BlueskyCredentials) *atproto.Client {
	pds := a.cfg.PDSURL
	if pds == "" {
		pds = creds.PDSURL
	}
	client := atproto.NewClient(pds, xrpcTimeout)
	if a.sessions != nil {
		client = client.WithSessionCache(a.sessions)
	}
	return client
}

// runTask runs one task end to end and pushes metrics when a Pushgateway is
// configured.
func (a *app) runTask(ctx context.Context, t task.Task) (*task.Result, error) {
	p, err := a.plan(t)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "Authentication: %s\n", p.auth)
	fmt.Fprintln(a.out, a.styles.Rule(t.Width()))

	runner := task.NewRunner(task.RunnerConfig{
		Agent:    p.agent,
		Out:      a.out,
		Styles:   a.styles,
		Metrics:  a.metrics,
		Audit:    a.audit,
		Markdown: a.cfg.Render,
	})
	res, runErr := runner.Run(ctx, t, p.preparer)

	if a.cfg.Pushgateway != "" {
		if err := metrics.Push(context.WithoutCancel(ctx), a.cfg.Pushgateway, "sentinel", t.Name, a.registry); err != nil {
			a.logger.Warn("Failed to push metrics: %v", err)
		}
	}
	return res, runErr
}

func (a *app) tracingProvider() (*tracing.Provider, error) {
	return tracing.NewProvider(tracing.Config{
		Endpoint:  a.cfg.TracingEndpoint,
		TLSCAPath: a.cfg.TracingCAPath,
		Version:   Version,
	})
}

// lookupTask finds name in the catalog and reports unknown names as
// configuration errors.
func lookupTask(c *task.Catalog, name string) (task.Task, error) {
	t, err := c.Lookup(name)
	if err != nil {
		return task.Task{}, config.NewConfigError(err.Error()).
			WithHint("Run 'sentinel tasks list' to see available tasks")
	}
	return t, nil
}
