package task

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/agent/audit"
	"github.com/moolen/sentinel/internal/logging"
	"github.com/moolen/sentinel/internal/metrics"
	"github.com/moolen/sentinel/internal/render"
)

// Result describes a finished run.
type Result struct {
	Task     string
	RunID    string
	Verdict  agent.Verdict
	Sentinel string
	Text     string
	Usage    agent.Usage
	Skipped  bool
	Duration time.Duration
}

// RunnerConfig wires a Runner. Only Agent and Out are required.
type RunnerConfig struct {
	Agent   agent.Agent
	Out     io.Writer
	Styles  *render.Styles
	Metrics *metrics.Metrics
	Audit   *audit.Logger
	// Markdown buffers agent output and renders it once complete instead of
	// streaming it raw.
	Markdown bool
}

// Runner executes tasks one at a time.
type Runner struct {
	agent    agent.Agent
	out      io.Writer
	styles   *render.Styles
	metrics  *metrics.Metrics
	audit    *audit.Logger
	markdown bool
	now      func() time.Time
	logger   *logging.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	styles := cfg.Styles
	if styles == nil {
		styles = render.Plain()
	}
	return &Runner{
		agent:    cfg.Agent,
		out:      cfg.Out,
		styles:   styles,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		markdown: cfg.Markdown,
		now:      time.Now,
		logger:   logging.GetLogger("task.runner"),
	}
}

// Run prepares t with p, queries the agent and reports the verdict. Agent
// failures are returned as *agent.InvocationError.
func (r *Runner) Run(ctx context.Context, t Task, p Preparer) (*Result, error) {
	ctx, span := otel.Tracer("sentinel/task").Start(ctx, "task.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.name", t.Name),
		attribute.String("task.kind", string(t.Kind)),
	)

	logger := r.logger.WithContext(ctx).WithField("task", t.Name)
	start := r.now()
	res := &Result{Task: t.Name}

	run, err := r.audit.StartRun(t.Name, r.agent.Name())
	if err != nil {
		logger.Warn("Audit log write failed: %v", err)
	}
	if run != nil {
		res.RunID = run.ID
		logger = logger.WithField("run_id", run.ID)
	}

	fail := func(err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task run failed")
		r.metrics.ObserveError(t.Name)
		r.auditErr(logger, run.LogError(err))
		r.auditErr(logger, run.LogEnd(r.now().Sub(start), res.Usage.InputTokens, res.Usage.OutputTokens))
		return nil, err
	}

	prep, err := p.Prepare(ctx, r.out)
	if err != nil {
		return fail(fmt.Errorf("prepare task %s: %w", t.Name, err))
	}

	if prep.Skip {
		if prep.Notice != "" {
			fmt.Fprintln(r.out, prep.Notice)
		}
		fmt.Fprintln(r.out, "SILENT")
		logger.Info("Run skipped: %s", prep.Notice)

		res.Skipped = true
		res.Verdict = agent.VerdictSilent
		res.Sentinel = "SILENT"
		r.auditErr(logger, run.LogSkipped(prep.Notice))
		return r.finish(span, logger, run, res, start), nil
	}

	r.auditErr(logger, run.LogPrompt(prep.Prompt, t.SystemPrompt, t.MaxTurns))

	fmt.Fprintln(r.out, "Starting research with Claude Agent...")
	fmt.Fprintln(r.out, r.styles.Rule(t.Width()))

	text, err := r.stream(ctx, logger, run, t, prep.Prompt, res)
	if err != nil {
		return fail(err)
	}
	res.Text = text

	if r.markdown {
		rendered, err := render.Markdown(text, render.IsTerminal(r.out), 0)
		if err != nil {
			logger.Warn("Markdown rendering failed, printing raw output: %v", err)
			rendered = text
		}
		fmt.Fprint(r.out, rendered)
	}
	if text != "" && !strings.HasSuffix(text, "\n") && !r.markdown {
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out, r.styles.Rule(t.Width()))

	res.Verdict, res.Sentinel = agent.DetectVerdict(text)
	if res.Verdict == agent.VerdictUnknown {
		logger.Warn("Agent output contains neither an ALERT: nor a SILENT line")
	}
	r.auditErr(logger, run.LogAgentText(text))
	r.auditErr(logger, run.LogVerdict(res.Verdict.String(), res.Sentinel))

	return r.finish(span, logger, run, res, start), nil
}

// stream consumes the agent's messages, echoing text unless markdown
// rendering is on, and returns the full text.
func (r *Runner) stream(ctx context.Context, logger *logging.Logger, run *audit.Run, t Task, prompt string, res *Result) (string, error) {
	var text strings.Builder
	atLineStart := true

	for msg, err := range r.agent.Query(ctx, t.Request(prompt)) {
		if err != nil {
			return text.String(), err
		}

		switch msg.Kind {
		case agent.KindText:
			text.WriteString(msg.Text)
			if !r.markdown && msg.Text != "" {
				fmt.Fprint(r.out, msg.Text)
				atLineStart = strings.HasSuffix(msg.Text, "\n")
			}
		case agent.KindToolUse:
			logger.Debug("Agent used tool %s", msg.Tool)
			r.auditErr(logger, run.LogToolUse(msg.Tool, msg.Input))
			if !atLineStart {
				fmt.Fprintln(r.out)
			}
			fmt.Fprintf(r.out, "[%s] %s\n", msg.Tool, summarizeInput(msg.Input))
			atLineStart = true
		case agent.KindResult:
			res.Usage = msg.Usage
			logger.Debug("Agent finished after %d turn(s), stop reason %s", msg.Turns, msg.StopReason)
		}
	}
	return text.String(), nil
}

func (r *Runner) finish(span trace.Span, logger *logging.Logger, run *audit.Run, res *Result, start time.Time) *Result {
	end := r.now()
	res.Duration = end.Sub(start)

	span.SetAttributes(
		attribute.String("task.verdict", res.Verdict.String()),
		attribute.Bool("task.skipped", res.Skipped),
	)
	r.metrics.ObserveRun(res.Task, res.Verdict.String(), res.Duration, end)
	r.metrics.ObserveTokens(res.Task, res.Usage.InputTokens, res.Usage.OutputTokens)
	r.auditErr(logger, run.LogEnd(res.Duration, res.Usage.InputTokens, res.Usage.OutputTokens))

	logger.InfoWithFields("Run finished",
		logging.Field("verdict", res.Verdict.String()),
		logging.Field("duration", res.Duration.Round(time.Millisecond).String()),
		logging.Field("input_tokens", res.Usage.InputTokens),
		logging.Field("output_tokens", res.Usage.OutputTokens),
	)
	return res
}

func (r *Runner) auditErr(logger *logging.Logger, err error) {
	if err != nil {
		logger.Warn("Audit log write failed: %v", err)
	}
}

// summarizeInput renders a tool input on one line, preferring its query.
func summarizeInput(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(input, &fields); err == nil {
		if q, ok := fields["query"].(string); ok {
			return q
		}
		if u, ok := fields["url"].(string); ok {
			return u
		}
	}
	s := string(input)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
