package framehost

import (
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framehost/config"
	"github.com/gogpu/framehost/metrics"
	"github.com/gogpu/framehost/resource"
)

// Option configures a Runtime during creation. Options apply in order, so
// WithConfig replaces what earlier options set.
//
// Example:
//
//	rt, err := framehost.New(
//	    framehost.WithDeviceProvider(provider),
//	    framehost.WithFramesInFlight(2),
//	)
type Option func(*options)

// options holds optional configuration for Runtime creation.
type options struct {
	cfg      config.Config
	logger   *slog.Logger
	provider gpucontext.DeviceProvider
	metrics  *metrics.Metrics
}

// defaultOptions returns the default runtime options.
func defaultOptions() options {
	return options{cfg: *config.Default()}
}

// WithConfig sets every configurable field from cfg. A nil cfg is
// ignored.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = *cfg
			o.cfg.Plugins = append([]string(nil), cfg.Plugins...)
		}
	}
}

// WithLogger sets the logger of the runtime and of everything it creates.
// Without it the runtime follows the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBackend selects the backend by registry name. The empty name picks
// the first backend that initializes, in priority order.
func WithBackend(name string) Option {
	return func(o *options) {
		o.cfg.Backend = name
	}
}

// WithDeviceProvider sets the GPU device the backend records on. The
// device, queue and surface format are published to plugins.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithMetrics sets the collectors the runtime reports to. A nil Metrics
// disables reporting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFramesInFlight sets how many frames of constants and options are
// kept per viewport.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		o.cfg.FramesInFlight = n
	}
}

// WithStrictFrameData makes conflicting per-frame data an error instead
// of a silent overwrite.
func WithStrictFrameData(strict bool) Option {
	return func(o *options) {
		o.cfg.StrictFrameData = strict
	}
}

// WithValidation enables checks of caller discipline, such as overlapping
// evaluations of one feature and viewport.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.cfg.Validation = enabled
	}
}

// WithAPI sets the native API whose resource states tags carry.
func WithAPI(api resource.API) Option {
	return func(o *options) {
		o.cfg.API = api.String()
	}
}

// WithPlugins adds registered plugin names loaded by New.
func WithPlugins(names ...string) Option {
	return func(o *options) {
		o.cfg.Plugins = append(o.cfg.Plugins, names...)
	}
}
