package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline holds the processing metrics on a private registry so the exposed
// endpoint carries only this process's series.
type Pipeline struct {
	registry *prometheus.Registry

	documentsTotal *prometheus.CounterVec
	pathOutcomes   *prometheus.CounterVec
	duration       prometheus.Histogram
	inFlight       prometheus.Gauge
	ruleOverrides  prometheus.Counter
	corrections    prometheus.Counter
	queueDepth     prometheus.Gauge
}

func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperbase_documents_total",
			Help: "Documents processed, by final status.",
		}, []string{"status"}),
		pathOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperbase_path_outcomes_total",
			Help: "Extraction path settlements, by source and status.",
		}, []string{"source", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperbase_document_duration_seconds",
			Help:    "End-to-end processing time per document.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paperbase_documents_in_flight",
			Help: "Documents currently being processed.",
		}),
		ruleOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperbase_rule_overrides_total",
			Help: "Documents whose category was overridden by a user rule.",
		}),
		corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperbase_ocr_corrections_total",
			Help: "Documents that went through the OCR correction pass.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paperbase_queue_depth",
			Help: "Jobs waiting in the processing queue.",
		}),
	}
	p.registry.MustRegister(
		p.documentsTotal, p.pathOutcomes, p.duration,
		p.inFlight, p.ruleOverrides, p.corrections, p.queueDepth,
	)
	return p
}

func (p *Pipeline) DocumentDone(status string, elapsed time.Duration) {
	p.documentsTotal.WithLabelValues(status).Inc()
	p.duration.Observe(elapsed.Seconds())
}

func (p *Pipeline) PathSettled(source, status string) {
	p.pathOutcomes.WithLabelValues(source, status).Inc()
}

func (p *Pipeline) InFlightInc()        { p.inFlight.Inc() }
func (p *Pipeline) InFlightDec()        { p.inFlight.Dec() }
func (p *Pipeline) RuleOverride()       { p.ruleOverrides.Inc() }
func (p *Pipeline) CorrectionRan()      { p.corrections.Inc() }
func (p *Pipeline) SetQueueDepth(n int) { p.queueDepth.Set(float64(n)) }

// Handler exposes the registry for a /metrics route.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
