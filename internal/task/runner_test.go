package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/sentinel/internal/agent"
	"github.com/moolen/sentinel/internal/agent/audit"
	"github.com/moolen/sentinel/internal/metrics"
)

func newTestRunner(t *testing.T, a agent.Agent) (*Runner, *bytes.Buffer, *metrics.Metrics) {
	t.Helper()
	out := &bytes.Buffer{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewRunner(RunnerConfig{Agent: a, Out: out, Metrics: m}), out, m
}

func TestRunner_PromptTaskSilent(t *testing.T) {
	a := agent.NewScripted("Checked the React blog.\nSILENT\n")
	r, out, m := newTestRunner(t, a)

	task := validTask()
	res, err := r.Run(context.Background(), task, StaticPrompt(task.Prompt))
	require.NoError(t, err)

	assert.Equal(t, agent.VerdictSilent, res.Verdict)
	assert.Equal(t, "SILENT", res.Sentinel)
	assert.False(t, res.Skipped)

	rule := strings.Repeat("-", DefaultRuleWidth)
	want := "Starting research with Claude Agent...\n" + rule + "\n" +
		"Checked the React blog.\nSILENT\n" + rule + "\n"
	assert.Equal(t, want, out.String())

	reqs := a.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, task.Prompt, reqs[0].Prompt)
	assert.Equal(t, 10, reqs[0].MaxTurns)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskRuns.WithLabelValues("react-19", "silent")))
}

func TestRunner_AlertAndToolMarkers(t *testing.T) {
	a := &agent.Scripted{Messages: []agent.Message{
		{Kind: agent.KindText, Text: "Looking\n"},
		{Kind: agent.KindToolUse, Tool: "web_search", Input: json.RawMessage(`{"query":"react 19 release"}`)},
		{Kind: agent.KindText, Text: "ALERT: React 19 is out"},
		{Kind: agent.KindResult, Usage: agent.Usage{InputTokens: 7, OutputTokens: 3}},
	}}
	r, out, m := newTestRunner(t, a)

	res, err := r.Run(context.Background(), validTask(), StaticPrompt("p"))
	require.NoError(t, err)

	assert.Equal(t, agent.VerdictAlert, res.Verdict)
	assert.Equal(t, "Looking\nALERT: React 19 is out", res.Text)
	assert.Equal(t, int64(7), res.Usage.InputTokens)
	assert.Contains(t, out.String(), "Looking\n[web_search] react 19 release\nALERT: React 19 is out\n")
	assert.Equal(t, 7.0, testutil.ToFloat64(m.AgentTokens.WithLabelValues("react-19", "input")))
}

func TestRunner_UnknownVerdict(t *testing.T) {
	r, _, m := newTestRunner(t, agent.NewScripted("I am not sure."))

	res, err := r.Run(context.Background(), validTask(), StaticPrompt("p"))
	require.NoError(t, err)
	assert.Equal(t, agent.VerdictUnknown, res.Verdict)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskRuns.WithLabelValues("react-19", "unknown")))
}

func TestRunner_SkipDoesNotInvokeAgent(t *testing.T) {
	a := agent.NewScripted("should not run")
	r, out, _ := newTestRunner(t, a)

	skip := PreparerFunc(func(ctx context.Context, w io.Writer) (Preparation, error) {
		return Preparation{Skip: true, Notice: "No labeler subscriptions found."}, nil
	})

	res, err := r.Run(context.Background(), validTask(), skip)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, agent.VerdictSilent, res.Verdict)
	assert.Equal(t, "No labeler subscriptions found.\nSILENT\n", out.String())
	assert.Empty(t, a.Requests())
}

func TestRunner_PrepareError(t *testing.T) {
	a := agent.NewScripted("unused")
	r, _, m := newTestRunner(t, a)

	failing := PreparerFunc(func(ctx context.Context, w io.Writer) (Preparation, error) {
		return Preparation{}, errors.New("login failed")
	})

	_, err := r.Run(context.Background(), validTask(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Empty(t, a.Requests())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskErrors.WithLabelValues("react-19")))
}

func TestRunner_AgentError(t *testing.T) {
	a := agent.NewScripted("partial output")
	a.Err = errors.New("overloaded")
	r, _, m := newTestRunner(t, a)

	_, err := r.Run(context.Background(), validTask(), StaticPrompt("p"))
	require.Error(t, err)

	var ie *agent.InvocationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskErrors.WithLabelValues("react-19")))
}

func TestRunner_Markdown(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRunner(RunnerConfig{Agent: agent.NewScripted("# Findings\n\nSILENT\n"), Out: out, Markdown: true})

	res, err := r.Run(context.Background(), validTask(), StaticPrompt("p"))
	require.NoError(t, err)
	assert.Equal(t, agent.VerdictSilent, res.Verdict)
	assert.Contains(t, out.String(), "Findings")
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRunner_WritesAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(path)
	require.NoError(t, err)

	r := NewRunner(RunnerConfig{Agent: agent.NewScripted("SILENT"), Out: io.Discard, Audit: logger})
	res, err := r.Run(context.Background(), validTask(), StaticPrompt("p"))
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	assert.NotEmpty(t, res.RunID)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	data := string(raw)
	for _, typ := range []string{"run_start", "prompt", "agent_text", "verdict", "run_end"} {
		assert.Contains(t, data, `"type":"`+typ+`"`)
	}
	assert.Contains(t, data, res.RunID)
}

func TestSummarizeInput(t *testing.T) {
	assert.Equal(t, "", summarizeInput(nil))
	assert.Equal(t, "q", summarizeInput(json.RawMessage(`{"query":"q"}`)))
	assert.Equal(t, "https://x", summarizeInput(json.RawMessage(`{"url":"https://x"}`)))
	assert.Equal(t, `{"n":1}`, summarizeInput(json.RawMessage(`{"n":1}`)))
}
