// Package metrics exposes extraction and photo statistics to Prometheus.
package metrics

import (
	"time"

	"auto-photo-saver/document"
	"auto-photo-saver/images"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auto_photo_saver"

// Submission outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeMalformed   = "malformed"
	OutcomeFailed      = "failed"
	OutcomeUnavailable = "unavailable"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	submissions       *prometheus.CounterVec
	unresolved        *prometheus.CounterVec
	fieldSources      *prometheus.CounterVec
	photoBytes        prometheus.Histogram
	photoQuality      prometheus.Histogram
	extractionSeconds prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Passenger submissions by outcome.",
		}, []string{"outcome"}),
		unresolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_fields_total",
			Help:      "Record fields no extraction strategy could read.",
		}, []string{"field"}),
		fieldSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_sources_total",
			Help:      "Resolved record fields by winning strategy.",
		}, []string{"field", "source"}),
		photoBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "photo_bytes",
			Help:      "Encoded size of normalized photos.",
			Buckets:   []float64{2048, 4096, images.MinPhotoBytes, 8192, 10240, images.MaxPhotoBytes, 16384, 32768},
		}),
		photoQuality: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "photo_quality",
			Help:      "JPEG quality chosen for normalized photos.",
			Buckets:   prometheus.LinearBuckets(images.FloorQuality, 10, 10),
		}),
		extractionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent recognizing and reconciling one passport.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRecord(record document.PassportRecord) {
	if m == nil {
		return
	}
	for _, f := range record.Unresolved() {
		m.unresolved.WithLabelValues(string(f)).Inc()
	}
	for f, src := range record.Sources() {
		m.fieldSources.WithLabelValues(string(f), string(src)).Inc()
	}
}

func (m *Metrics) ObservePhoto(artifact images.PhotoArtifact) {
	if m == nil {
		return
	}
	m.photoBytes.Observe(float64(artifact.Size()))
	m.photoQuality.Observe(float64(artifact.Quality))
}

func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.extractionSeconds.Observe(d.Seconds())
}
