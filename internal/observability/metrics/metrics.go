package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ContactMetrics exposes counters/histograms for the contact pipeline.
type ContactMetrics struct {
	decodeTotal      *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	vcardTotal       prometheus.Counter
	qrRenderSeconds  prometheus.Histogram
	qrCacheTotal     *prometheus.CounterVec
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		decodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrlinks",
			Subsystem: "codec",
			Name:      "decode_total",
			Help:      "Contact query decodes by outcome",
		}, []string{"outcome"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrlinks",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		vcardTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrlinks",
			Subsystem: "vcard",
			Name:      "render_total",
			Help:      "vCard payloads rendered",
		}),
		qrRenderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qrlinks",
			Subsystem: "qr",
			Name:      "render_seconds",
			Help:      "Latency of QR PNG encoding",
			Buckets:   prometheus.DefBuckets,
		}),
		qrCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrlinks",
			Subsystem: "qr",
			Name:      "cache_total",
			Help:      "QR render cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.decodeTotal, m.submissionsTotal, m.vcardTotal, m.qrRenderSeconds, m.qrCacheTotal)
	return m
}

// ObserveDecode records a query decode. outcome is "ok" or "missing".
func (m *ContactMetrics) ObserveDecode(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "missing"
	}
	m.decodeTotal.WithLabelValues(outcome).Inc()
}

// ObserveSubmission records a form POST outcome ("accepted", "invalid",
// "too_large").
func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveVCard() {
	if m == nil {
		return
	}
	m.vcardTotal.Inc()
}

func (m *ContactMetrics) ObserveQRRender(d time.Duration) {
	if m == nil {
		return
	}
	m.qrRenderSeconds.Observe(d.Seconds())
}

// ObserveQRCache records a cache lookup result ("hit", "miss", "error").
func (m *ContactMetrics) ObserveQRCache(result string) {
	if m == nil {
		return
	}
	m.qrCacheTotal.WithLabelValues(result).Inc()
}
