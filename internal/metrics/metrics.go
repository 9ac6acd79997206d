// Package metrics exposes Prometheus collectors for use cases, model calls
// and progress events.
package metrics

import (
	"context"
	"net/http"

	"github.com/alexanderramin/pathways/internal/events"
	"github.com/alexanderramin/pathways/internal/llm"
	"github.com/alexanderramin/pathways/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pathways"

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeUserError = "user_error"
	OutcomeError     = "error"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	useCases        *prometheus.CounterVec
	useCaseDuration *prometheus.HistogramVec
	llmCalls        *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	thresholds      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		useCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "use_cases_total",
			Help:      "Service use cases by name and outcome.",
		}, []string{"use_case", "outcome"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "use_case_duration_seconds",
			Help:      "Service use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Model calls by task and error code (empty on success).",
		}, []string{"task", "error_code"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Model call latency including retries.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"task"}),
		thresholds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thresholds_reached_total",
			Help:      "Progress thresholds crossed by users.",
		}, []string{"threshold"}),
	}
	m.registry.MustRegister(
		m.useCases, m.useCaseDuration,
		m.llmCalls, m.llmDuration,
		m.thresholds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUseCase implements service.UseCaseObserver.
func (m *Metrics) ObserveUseCase(_ context.Context, event service.UseCaseEvent) {
	m.useCases.WithLabelValues(event.Name, outcome(event.Err)).Inc()
	m.useCaseDuration.WithLabelValues(event.Name).Observe(event.Duration.Seconds())
}

// OnCallComplete implements llm.Observer.
func (m *Metrics) OnCallComplete(event llm.LLMCallEvent) {
	task := string(event.Task)
	m.llmCalls.WithLabelValues(task, event.ErrorCode).Inc()
	m.llmDuration.WithLabelValues(task).Observe(event.Latency.Seconds())
}

// Publish implements events.Publisher by counting threshold events.
func (m *Metrics) Publish(_ context.Context, e events.Event) error {
	if e.Type == events.MilestoneReached {
		m.thresholds.WithLabelValues(e.Threshold).Inc()
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case service.IsUserError(err):
		return OutcomeUserError
	default:
		return OutcomeError
	}
}
