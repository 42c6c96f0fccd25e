package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	// Should not panic
	m.ObserveEvaluate("sharpen", "ok")
	m.ObserveFrameData("constants", "exact")
	m.ObserveTagLookup("depth", "global")
	m.PluginLoaded()
	m.PluginUnloaded()
	if m.Gatherer() != nil {
		t.Error("nil Metrics returned a gatherer")
	}
}

func TestNewWithOwnRegistry(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	if m.Gatherer() == nil {
		t.Fatal("Gatherer() = nil")
	}
	m.ObserveEvaluate("sharpen", "ok")
	mfs, err := m.Gatherer().Gather()
	if err != nil || len(mfs) == 0 {
		t.Errorf("Gather() = %d families, %v", len(mfs), err)
	}
}

func TestCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	m.ObserveEvaluate("sharpen", "ok")
	m.ObserveEvaluate("sharpen", "ok")
	m.ObserveEvaluate("sharpen", "feature_missing")
	m.ObserveFrameData("constants", "fallback")
	m.ObserveTagLookup("depth", "local")
	m.PluginLoaded()
	m.PluginLoaded()
	m.PluginUnloaded()

	if got := testutil.ToFloat64(m.evaluate.WithLabelValues("sharpen", "ok")); got != 2 {
		t.Errorf("evaluate ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.evaluate.WithLabelValues("sharpen", "feature_missing")); got != 1 {
		t.Errorf("evaluate feature_missing = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.frameData.WithLabelValues("constants", "fallback")); got != 1 {
		t.Errorf("framedata fallback = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tagLookups.WithLabelValues("depth", "local")); got != 1 {
		t.Errorf("tag lookups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pluginsLoaded); got != 1 {
		t.Errorf("plugins loaded = %v, want 1", got)
	}
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(reg)
	if err != nil {
		t.Fatalf("second New error = %v", err)
	}
	a.ObserveTagLookup("depth", "global")
	b.ObserveTagLookup("depth", "global")
	if got := testutil.ToFloat64(a.tagLookups.WithLabelValues("depth", "global")); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(a.tagLookups); n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}
