package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renders         *prom.CounterVec
	renderDuration  *prom.HistogramVec
	cacheSaveErrors prom.Counter
}

// NewPrometheusRecorder constructs the render metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gosnip",
			Name:      "renders_total",
			Help:      "Snippet renders by outcome",
		}, []string{"result"}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gosnip",
			Name:      "render_duration_seconds",
			Help:      "Snippet render duration by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		cacheSaveErrors: prom.NewCounter(prom.CounterOpts{
			Namespace: "gosnip",
			Name:      "cache_save_errors_total",
			Help:      "Rendered snippets that could not be written to the cache",
		}),
	}
	reg.MustRegister(pr.renders, pr.renderDuration, pr.cacheSaveErrors)
	return pr
}

func (p *PrometheusRecorder) IncRender(result ResultLabel) {
	p.renders.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(result ResultLabel, d time.Duration) {
	p.renderDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheSaveError() {
	p.cacheSaveErrors.Inc()
}

// Verify PrometheusRecorder implements Recorder
var _ Recorder = (*PrometheusRecorder)(nil)
