// Package metrics holds the prometheus collectors exported at /metrics.
//
// A nil *Metrics is valid and records nothing, so components can be built without a
// registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK        = "ok"
	OutcomeCallError = "call_error"
	OutcomeEmpty     = "empty"
	OutcomeNoJSON    = "no_json"
	OutcomeSchema    = "schema"
	OutcomeError     = "error"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeConflict  = "conflict"
	OutcomeInvalid   = "invalid"
)

type Metrics struct {
	llmAttempts     *prometheus.CounterVec
	llmFallbacks    prometheus.Counter
	llmRequests     *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	llmTokens       *prometheus.CounterVec
	scoringRuns     *prometheus.CounterVec
	scoringDuration prometheus.Histogram
	judgeLocks      *prometheus.CounterVec
}

// New registers every collector on reg. Registering twice on the same registry panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		llmAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_llm_attempts_total",
				Help: "LLM rubric scoring attempts by outcome.",
			},
			[]string{"outcome"},
		),
		llmFallbacks: f.NewCounter(
			prometheus.CounterOpts{
				Name: "scoring_llm_fallback_total",
				Help: "LLM rubric scores replaced by the writeup length heuristic.",
			},
		),
		llmRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Requests sent to the LLM provider.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "LLM provider request latency.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider", "model"},
		),
		llmTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Tokens reported by the LLM provider.",
			},
			[]string{"provider", "model", "direction"},
		),
		scoringRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_runs_total",
				Help: "Submission scoring runs by result.",
			},
			[]string{"result"},
		),
		scoringDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scoring_run_duration_seconds",
				Help:    "Wall time of a full submission scoring run.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		judgeLocks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judge_locks_total",
				Help: "Judge lock attempts by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) LLMAttempt(outcome string) {
	if m == nil {
		return
	}
	m.llmAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LLMFallback() {
	if m == nil {
		return
	}
	m.llmFallbacks.Inc()
}

func (m *Metrics) LLMRequest(provider, model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := OutcomeOK
	if err != nil {
		status = OutcomeError
	}
	m.llmRequests.WithLabelValues(provider, model, status).Inc()
	m.llmLatency.WithLabelValues(provider, model).Observe(d.Seconds())
}

func (m *Metrics) LLMTokens(provider, model string, in, out int64) {
	if m == nil {
		return
	}
	m.llmTokens.WithLabelValues(provider, model, "in").Add(float64(in))
	m.llmTokens.WithLabelValues(provider, model, "out").Add(float64(out))
}

func (m *Metrics) ScoringRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.scoringRuns.WithLabelValues(result).Inc()
	m.scoringDuration.Observe(d.Seconds())
}

func (m *Metrics) JudgeLock(result string) {
	if m == nil {
		return
	}
	m.judgeLocks.WithLabelValues(result).Inc()
}
