// Package metrics holds the Prometheus collectors for the sync pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeCreated      = "created"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// Attachment results.
const (
	AttachmentUploaded       = "uploaded"
	AttachmentSkipped        = "skipped"
	AttachmentDownloadFailed = "download_failed"
	AttachmentUploadFailed   = "upload_failed"
)

// Metrics groups the pipeline collectors. The zero value is not usable;
// build one with New. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry       *prometheus.Registry
	submissions    *prometheus.CounterVec
	attachments    *prometheus.CounterVec
	titleFallbacks prometheus.Counter
	duration       prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surveysync",
		Name:      "submissions_total",
		Help:      "Inbound submissions by outcome",
	}, []string{"outcome"})
	m.attachments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surveysync",
		Name:      "attachments_total",
		Help:      "Attachments processed by result",
	}, []string{"result"})
	m.titleFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "surveysync",
		Name:      "title_fallbacks_total",
		Help:      "Titles that fell back to sequence 001 after a failed count",
	})
	m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "surveysync",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent processing one submission",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
	m.registry.MustRegister(
		m.submissions, m.attachments, m.titleFallbacks, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Submission counts one processed submission.
func (m *Metrics) Submission(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}

// Attachment counts one attachment.
func (m *Metrics) Attachment(result string) {
	if m == nil {
		return
	}
	m.attachments.WithLabelValues(result).Inc()
}

// TitleFallback counts one fallback title.
func (m *Metrics) TitleFallback() {
	if m == nil {
		return
	}
	m.titleFallbacks.Inc()
}
