// Package metrics provides Prometheus collectors for the runtime: evaluate
// dispatches, frame data lookups, tag lookups and loaded plugins.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional collector without checks at every call site.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "framehost"

// Metrics holds the runtime collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	evaluate      *prometheus.CounterVec
	frameData     *prometheus.CounterVec
	tagLookups    *prometheus.CounterVec
	pluginsLoaded prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, available through Gatherer. Collectors already
// registered with reg by an earlier New are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, m.gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	m.evaluate = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluate_total",
			Help:      "Evaluate dispatches by feature and result code",
		},
		[]string{"feature", "result"},
	)
	m.frameData = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "framedata_lookups_total",
			Help:      "Frame data lookups by cache and match kind (exact, fallback, not_found)",
		},
		[]string{"cache", "match"},
	)
	m.tagLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_lookups_total",
			Help:      "Tagged resource lookups by buffer type and result",
		},
		[]string{"buffer", "result"},
	)
	m.pluginsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plugins_loaded",
			Help:      "Number of currently loaded plugins",
		},
	)

	var err error
	if m.evaluate, err = register(reg, m.evaluate); err != nil {
		return nil, err
	}
	if m.frameData, err = register(reg, m.frameData); err != nil {
		return nil, err
	}
	if m.tagLookups, err = register(reg, m.tagLookups); err != nil {
		return nil, err
	}
	if m.pluginsLoaded, err = register(reg, m.pluginsLoaded); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Gatherer returns the registry the collectors were registered with, when
// it can be gathered.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// ObserveEvaluate counts one evaluate dispatch.
func (m *Metrics) ObserveEvaluate(feature, result string) {
	if m == nil {
		return
	}
	m.evaluate.WithLabelValues(feature, result).Inc()
}

// ObserveFrameData counts one frame data lookup.
func (m *Metrics) ObserveFrameData(cache, match string) {
	if m == nil {
		return
	}
	m.frameData.WithLabelValues(cache, match).Inc()
}

// ObserveTagLookup counts one tagged resource lookup.
func (m *Metrics) ObserveTagLookup(buffer, result string) {
	if m == nil {
		return
	}
	m.tagLookups.WithLabelValues(buffer, result).Inc()
}

// PluginLoaded increments the loaded plugin gauge.
func (m *Metrics) PluginLoaded() {
	if m == nil {
		return
	}
	m.pluginsLoaded.Inc()
}

// PluginUnloaded decrements the loaded plugin gauge.
func (m *Metrics) PluginUnloaded() {
	if m == nil {
		return
	}
	m.pluginsLoaded.Dec()
}
