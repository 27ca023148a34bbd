package server

import (
	"context"
	"net/http"

	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for question handling and model
// calls. It is an llm.Observer and a service.UseCaseObserver, so the same
// value can be handed to the model client and the assistant.
type Metrics struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	contextChars    prometheus.Histogram
	truncations     prometheus.Counter
	llmDuration     *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apidocs",
				Name:      "intent_classifications_total",
				Help:      "Questions classified, by intent",
			},
			[]string{"intent"},
		),
		contextChars: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "apidocs",
			Name:      "context_characters",
			Help:      "Size of the schema context built for a question",
			Buckets:   []float64{0, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000},
		}),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apidocs",
			Name:      "context_truncations_total",
			Help:      "Contexts that hit the character budget",
		}),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apidocs",
				Name:      "llm_call_duration_seconds",
				Help:      "Model call latency including retries",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"task", "status"},
		),
	}
	m.registry.MustRegister(m.classifications, m.contextChars, m.truncations, m.llmDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveQuestion records one classified question and its context.
func (m *Metrics) ObserveQuestion(qc intelligence.QuestionContext) {
	m.record(string(qc.Classification.Intent), qc.Context.CharacterCount, qc.Context.WasTruncated)
}

func (m *Metrics) record(intent string, chars int, truncated bool) {
	m.classifications.WithLabelValues(intent).Inc()
	m.contextChars.Observe(float64(chars))
	if truncated {
		m.truncations.Inc()
	}
}

// OnCallComplete implements llm.Observer.
func (m *Metrics) OnCallComplete(e llm.LLMCallEvent) {
	status := "ok"
	if !e.Success {
		status = "error"
	}
	m.llmDuration.WithLabelValues(string(e.Task), status).Observe(float64(e.LatencyMs) / 1000)
}

// ObserveUseCase implements service.UseCaseObserver. Assistant turns that got
// as far as classification are counted.
func (m *Metrics) ObserveUseCase(_ context.Context, e service.UseCaseEvent) {
	intent, ok := e.Fields["intent"].(string)
	if !ok {
		return
	}
	chars, _ := e.Fields["context_chars"].(int)
	truncated, _ := e.Fields["truncated"].(bool)
	m.record(intent, chars, truncated)
}
