package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes reported in svim_turns_total.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Metrics groups the instruments of the HTTP transport on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	Turns        *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	ToolResults  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by outcome.",
		}, []string{"outcome"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of one conversation turn.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		ToolResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_results_total",
			Help:      "Tool results returned to the model, by error kind (empty when successful).",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	m.Turns.WithLabelValues(outcome).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
