package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestContactMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)
	m.ObserveDecode(true)
	m.ObserveDecode(false)
	m.ObserveSubmission("accepted")
	m.ObserveVCard()
	m.ObserveQRRender(25 * time.Millisecond)
	m.ObserveQRCache("hit")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"qrlinks_codec_decode_total",
		"qrlinks_form_submissions_total",
		"qrlinks_vcard_render_total",
		"qrlinks_qr_render_seconds",
		"qrlinks_qr_cache_total",
	} {
		if !names[want] {
			t.Fatalf("expected metric %s to be registered, got %v", want, names)
		}
	}
}

func TestContactMetricsDecodeOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)
	m.ObserveDecode(false)
	m.ObserveDecode(false)
	m.ObserveDecode(true)

	if got := counterValue(t, reg, "qrlinks_codec_decode_total", "outcome", "missing"); got != 2 {
		t.Fatalf("expected 2 missing decodes, got %v", got)
	}
	if got := counterValue(t, reg, "qrlinks_codec_decode_total", "outcome", "ok"); got != 1 {
		t.Fatalf("expected 1 ok decode, got %v", got)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == name {
			family = mf
		}
	}
	if family == nil {
		t.Fatalf("metric %s not found", name)
	}
	for _, metric := range family.GetMetric() {
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("series %s{%s=%q} not found", name, label, value)
	return 0
}

func TestContactMetricsNilSafe(t *testing.T) {
	var m *ContactMetrics
	m.ObserveDecode(true)
	m.ObserveSubmission("invalid")
	m.ObserveVCard()
	m.ObserveQRRender(time.Second)
	m.ObserveQRCache("miss")
}
