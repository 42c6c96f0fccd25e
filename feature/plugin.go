package feature

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/framehost/params"
)

// ErrInvalidManifest is returned for a plugin without a name.
var ErrInvalidManifest = errors.New("feature: invalid manifest")

// Manifest describes a plugin.
type Manifest struct {
	Name    string
	Feature Feature
	Version string
	// Requires lists parameter keys that must be published before the
	// plugin starts.
	Requires []string
}

// Host is the part of the runtime a plugin sees while starting.
type Host interface {
	Params() *params.Store
	Logger() *slog.Logger
}

// Plugin is an independently built feature implementation.
type Plugin interface {
	Manifest() Manifest
	// Startup prepares the plugin and returns its exports. The plugin
	// keeps whatever it needs from host; there is no global context.
	Startup(host Host) (Exports, error)
	// Shutdown releases everything Startup acquired.
	Shutdown()
}

// Module is a started plugin with its bound functions.
type Module struct {
	Manifest  Manifest
	Functions Functions
	Exports   Exports

	plugin   Plugin
	store    *params.Store
	unloaded sync.Once
}

// Function returns the export name of the module.
func (m *Module) Function(name string) (any, bool) {
	v, ok := m.Exports[name]
	return v, ok
}

// Unload withdraws published shared data and shuts the plugin down. Calls
// after the first are no-ops.
func (m *Module) Unload() {
	m.unloaded.Do(func() {
		if m.Functions.GetSharedData != nil {
			m.store.Delete(SharedDataKey(m.Manifest.Feature))
		}
		m.plugin.Shutdown()
	})
}

// Loader starts plugins against a host.
type Loader struct {
	host Host
	opts options
}

// NewLoader creates a loader for host.
func NewLoader(host Host, opts ...Option) *Loader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader{host: host, opts: o}
}

// Load starts p and binds its exports. Missing dependencies fail before
// the plugin starts; exports that do not bind shut it down again and fail
// with ErrIncompatible. A plugin offering shared data has it published.
func (l *Loader) Load(p Plugin) (*Module, error) {
	m := p.Manifest()
	if m.Name == "" {
		return nil, fmt.Errorf("%w: empty name for %s", ErrInvalidManifest, m.Feature)
	}
	store := l.host.Params()
	if err := store.Require(m.Requires...); err != nil {
		return nil, fmt.Errorf("feature: %s dependencies: %w", m.Name, err)
	}

	exports, err := p.Startup(l.host)
	if err != nil {
		return nil, fmt.Errorf("feature: start %s: %w", m.Name, err)
	}
	fns, err := BindFunctions(exports)
	if err != nil {
		p.Shutdown()
		l.opts.logger.Error("feature: plugin rejected", "plugin", m.Name, "err", err)
		return nil, fmt.Errorf("feature: load %s: %w", m.Name, err)
	}
	if fns.GetSharedData != nil {
		PublishSharedData(store, m.Feature, fns.GetSharedData)
	}

	l.opts.logger.Info("feature: plugin loaded",
		"plugin", m.Name, "feature", m.Feature, "version", m.Version, "exports", exports.Names())
	return &Module{
		Manifest:  m,
		Functions: fns,
		Exports:   exports,
		plugin:    p,
		store:     store,
	}, nil
}
