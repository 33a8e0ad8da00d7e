// Package metrics holds the Prometheus instruments for task runs and labeler
// probes, plus the two ways of exporting them: a Pushgateway push for
// one-shot runs and an HTTP /metrics endpoint for the daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sentinel"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	TaskRuns        *prometheus.CounterVec   // task, verdict
	TaskDuration    *prometheus.HistogramVec // task
	TaskLastRun     *prometheus.GaugeVec     // task
	TaskErrors      *prometheus.CounterVec   // task
	LabelerProbes   *prometheus.CounterVec   // result
	AgentTokens     *prometheus.CounterVec   // task, direction
	LabelersChecked prometheus.Gauge
}

// NewMetrics creates and registers all instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Completed task runs by verdict (alert, silent, unknown).",
		}, []string{"task", "verdict"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of task runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"task"}),
		TaskLastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run per task.",
		}, []string{"task"}),
		TaskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_errors_total",
			Help:      "Task runs that ended with an error.",
		}, []string{"task"}),
		LabelerProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labeler_probes_total",
			Help:      "Labeler connectivity probes by result (connected, not_connected, error).",
		}, []string{"result"}),
		AgentTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_tokens_total",
			Help:      "Tokens consumed by the research agent.",
		}, []string{"task", "direction"}),
		LabelersChecked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "labelers_checked",
			Help:      "Number of subscribed labelers in the most recent check.",
		}),
	}

	reg.MustRegister(
		m.TaskRuns,
		m.TaskDuration,
		m.TaskLastRun,
		m.TaskErrors,
		m.LabelerProbes,
		m.AgentTokens,
		m.LabelersChecked,
	)
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(task, verdict string, took time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.TaskRuns.WithLabelValues(task, verdict).Inc()
	m.TaskDuration.WithLabelValues(task).Observe(took.Seconds())
	m.TaskLastRun.WithLabelValues(task).Set(float64(finished.Unix()))
}

// ObserveError records a run that failed.
func (m *Metrics) ObserveError(task string) {
	if m == nil {
		return
	}
	m.TaskErrors.WithLabelValues(task).Inc()
}

// ObserveProbe records one connectivity probe outcome.
func (m *Metrics) ObserveProbe(result string) {
	if m == nil {
		return
	}
	m.LabelerProbes.WithLabelValues(result).Inc()
}

// ObserveTokens adds agent token usage.
func (m *Metrics) ObserveTokens(task string, input, output int64) {
	if m == nil {
		return
	}
	m.AgentTokens.WithLabelValues(task, "input").Add(float64(input))
	m.AgentTokens.WithLabelValues(task, "output").Add(float64(output))
}

// SetLabelersChecked records how many labelers the last check covered.
func (m *Metrics) SetLabelersChecked(n int) {
	if m == nil {
		return
	}
	m.LabelersChecked.Set(float64(n))
}
