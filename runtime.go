package framehost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framehost/backend"
	"github.com/gogpu/framehost/config"
	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/metrics"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/record"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

// Constants are the per-frame camera parameters shared by all features.
type Constants = feature.Constants

// runtimeIDs distinguishes the frame tokens of different runtimes.
var runtimeIDs atomic.Uint64

// FrameToken identifies one frame of one Runtime. Tokens are only minted
// by Runtime.NewFrameToken; the zero value is invalid.
type FrameToken struct {
	frame framedata.Frame
	owner uint64
}

// Frame returns the frame index.
func (t FrameToken) Frame() framedata.Frame { return t.frame }

// Runtime is the host's handle to the plugin runtime. Everything a plugin
// can reach hangs off a Runtime; there is no process-wide state besides
// the plugin and backend registries.
//
// Runtime is safe for concurrent use.
type Runtime struct {
	id       uint64
	cfg      config.Config
	api      resource.API
	logger   *slog.Logger
	provider gpucontext.DeviceProvider
	metrics  *metrics.Metrics
	backend  backend.Backend

	params    *params.Store
	tags      *resource.Store
	constants *framedata.Cache[Constants]
	table     *feature.Table
	loader    *feature.Loader

	frame  atomic.Uint32
	closed atomic.Bool

	mu       sync.RWMutex
	modules  map[feature.Feature]*feature.Module
	enabled  map[feature.Feature]bool
	trackers map[feature.Feature]*state.Tracker
}

var _ feature.Host = (*Runtime)(nil)

// New creates a runtime, opens its backend, publishes the runtime
// accessors and loads the configured plugins.
func New(opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	api, err := o.cfg.ResourceAPI()
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = packageLogger()
	}

	b, err := backend.Open(o.cfg.Backend, o.provider)
	if err != nil {
		return nil, fmt.Errorf("framehost: open backend %q: %w", o.cfg.Backend, err)
	}

	m := o.metrics
	r := &Runtime{
		id:       runtimeIDs.Add(1),
		cfg:      o.cfg,
		api:      api,
		logger:   logger,
		provider: o.provider,
		metrics:  m,
		backend:  b,
		params:   params.New(),
		tags:     resource.NewStore(api, logger),
		modules:  make(map[feature.Feature]*feature.Module),
		enabled:  make(map[feature.Feature]bool),
		trackers: make(map[feature.Feature]*state.Tracker),
	}
	r.constants = framedata.New[Constants](
		framedata.WithSlots(o.cfg.FramesInFlight),
		framedata.WithStrict(o.cfg.StrictFrameData),
		framedata.WithName("constants"),
		framedata.WithLogger(logger),
		framedata.WithObserver(func(name string, match framedata.Match) {
			m.ObserveFrameData(name, match.String())
		}),
	)
	r.table = feature.NewTable(
		feature.WithLogger(logger),
		feature.WithValidation(o.cfg.Validation),
		feature.WithObserver(func(f feature.Feature, err error) {
			m.ObserveEvaluate(f.String(), ResultOf(err).String())
		}),
	)
	r.loader = feature.NewLoader(r, feature.WithLogger(logger))
	r.publish()

	logger.Info("framehost: runtime created",
		"api", api, "backend", b.Name(), "frames_in_flight", o.cfg.FramesInFlight,
		"strict", o.cfg.StrictFrameData, "validation", o.cfg.Validation)

	if err := r.LoadPlugins(o.cfg.Plugins...); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// publish stores the runtime accessors every plugin looks up.
func (r *Runtime) publish() {
	r.params.Set(params.KeyGetTag, feature.GetTagFunc(r.getTag))
	r.params.Set(params.KeyGetConstants, feature.GetConstantsFunc(r.getConstants))
	r.params.Set(params.KeyStateTracker, feature.NewTrackerFunc(r.newTracker))
	r.params.Set(params.KeyBackend, r.backend)
	r.params.Set(params.KeyFramesInFlight, r.cfg.FramesInFlight)
	r.params.Set(params.KeyStrictFrameData, r.cfg.StrictFrameData)
	if p := r.provider; p != nil {
		r.params.Set(params.KeyDevice, p.Device())
		r.params.Set(params.KeyQueue, p.Queue())
		r.params.Set(params.KeySurfaceFormat, p.SurfaceFormat())
		if hp, ok := p.(halProvider); ok {
			if d := hp.HalDevice(); d != nil {
				r.params.Set(params.KeyHALDevice, d)
			}
		}
	}
}

// halProvider is implemented by device providers backed by a HAL device.
type halProvider interface {
	HalDevice() any
}

// Params returns the parameter store shared with plugins.
func (r *Runtime) Params() *params.Store { return r.params }

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// API returns the native API resource states are interpreted for.
func (r *Runtime) API() resource.API { return r.api }

// Backend returns the backend evaluations record barriers on.
func (r *Runtime) Backend() backend.Backend { return r.backend }

// Config returns a copy of the effective configuration.
func (r *Runtime) Config() config.Config {
	c := r.cfg
	c.Plugins = slices.Clone(r.cfg.Plugins)
	return c
}

// NewFrameToken returns the token for a new frame. With a non-nil index
// the host's own frame counter is used and becomes the runtime's;
// otherwise the runtime counter advances by one.
func (r *Runtime) NewFrameToken(index *uint32) FrameToken {
	var n uint32
	if index != nil {
		n = *index
		r.frame.Store(n)
	} else {
		n = r.frame.Add(1)
	}
	return FrameToken{frame: framedata.Frame(n), owner: r.id}
}

func (r *Runtime) check(frame FrameToken) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if frame.owner != r.id {
		return fmt.Errorf("%w: frame %d", ErrInvalidFrameToken, frame.frame)
	}
	return nil
}

// SetConstants records the constants of viewport for frame. Setting
// identical constants again is a no-op; different ones overwrite, or fail
// with ErrConflictingData in strict mode.
func (r *Runtime) SetConstants(c Constants, frame FrameToken, viewport framedata.Viewport) error {
	if err := r.check(frame); err != nil {
		return err
	}
	if !r.constants.Set(frame.frame, viewport, c) {
		return fmt.Errorf("%w: constants for frame %d viewport %d", ErrConflictingData, frame.frame, viewport)
	}
	return nil
}

// Constants returns the constants of viewport for frame, falling back to
// the most recent frame and then to viewport 0.
func (r *Runtime) Constants(viewport framedata.Viewport, frame FrameToken) (Constants, framedata.Match, error) {
	if err := r.check(frame); err != nil {
		return Constants{}, framedata.NotFound, err
	}
	return r.getConstants(viewport, frame.frame)
}

func (r *Runtime) getConstants(viewport framedata.Viewport, frame framedata.Frame) (Constants, framedata.Match, error) {
	c, m := r.constants.Get(viewport, frame)
	if m == framedata.NotFound {
		return c, m, fmt.Errorf("%w: viewport %d frame %d", feature.ErrMissingConstants, viewport, frame)
	}
	return c, m, nil
}

// SetTag tags resources globally for viewport. A tag whose resource is nil
// removes the buffer type. On a validation error nothing is recorded.
func (r *Runtime) SetTag(viewport framedata.Viewport, frame FrameToken, tags ...*resource.Tag) error {
	if err := r.check(frame); err != nil {
		return err
	}
	return r.tags.Set(viewport, frame.frame, tags...)
}

func (r *Runtime) getTag(buffer resource.BufferType, viewport framedata.Viewport, frame framedata.Frame,
	optional bool, inputs ...record.Record) (resource.Tagged, error) {
	t, err := resource.GetTagged(r.tags, buffer, viewport, frame, optional, inputs...)
	r.metrics.ObserveTagLookup(buffer.String(), tagResult(&t, err))
	return t, err
}

func tagResult(t *resource.Tagged, err error) string {
	switch {
	case err != nil:
		return ResultOf(err).String()
	case !t.IsValid():
		return "absent"
	case t.Local:
		return "local"
	default:
		return "global"
	}
}

func (r *Runtime) newTracker() *state.Tracker {
	return state.NewTracker(r.api, state.WithLogger(r.logger))
}

// LoadPlugin starts the plugin registered under name.
func (r *Runtime) LoadPlugin(name string) error {
	p := feature.Get(name)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrPluginNotFound, name)
	}
	return r.Load(p)
}

// LoadPlugins loads every named plugin. Failures do not stop later names;
// their errors are joined.
func (r *Runtime) LoadPlugins(names ...string) error {
	var errs []error
	for _, name := range names {
		if err := r.LoadPlugin(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load starts p and enables its feature. Only one plugin per feature may
// be loaded.
func (r *Runtime) Load(p feature.Plugin) error {
	if r.closed.Load() {
		return ErrClosed
	}
	f := p.Manifest().Feature

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[f]; ok {
		return fmt.Errorf("%w: %s", ErrFeatureLoaded, f)
	}
	m, err := r.loader.Load(p)
	if err != nil {
		return err
	}
	if err := r.table.Register(f, m.Functions.Begin, m.Functions.End); err != nil {
		m.Unload()
		return err
	}
	r.modules[f] = m
	r.enabled[f] = true
	r.trackers[f] = r.newTracker()
	r.metrics.PluginLoaded()
	return nil
}

// Unload shuts down the plugin of f.
func (r *Runtime) Unload(f feature.Feature) error {
	r.mu.Lock()
	m, ok := r.modules[f]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", feature.ErrFeatureMissing, f)
	}
	if r.cfg.Validation && r.table.Active(f) {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", feature.ErrDispatchInFlight, f)
	}
	r.unloadLocked(f, m)
	r.mu.Unlock()
	return nil
}

func (r *Runtime) unloadLocked(f feature.Feature, m *feature.Module) {
	_ = r.table.Register(f, nil, nil)
	delete(r.modules, f)
	delete(r.enabled, f)
	delete(r.trackers, f)
	m.Unload()
	r.metrics.PluginUnloaded()
	r.logger.Info("framehost: plugin unloaded", "plugin", m.Manifest.Name, "feature", f)
}

// Features returns the features with a loaded plugin, in ascending order.
func (r *Runtime) Features() []feature.Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]feature.Feature, 0, len(r.modules))
	for f := range r.modules {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// IsFeatureLoaded reports whether f has a plugin and is enabled.
func (r *Runtime) IsFeatureLoaded(f feature.Feature) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[f]
}

// SetFeatureLoaded enables or disables a loaded feature without unloading
// its plugin. A disabled feature fails to evaluate with
// feature.ErrFeatureMissing. The host must not disable a feature while one
// of its evaluations is in flight; with validation enabled this is an
// error.
func (r *Runtime) SetFeatureLoaded(f feature.Feature, loaded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[f]
	if !ok {
		return fmt.Errorf("%w: %s", feature.ErrFeatureMissing, f)
	}
	if r.enabled[f] == loaded {
		return nil
	}
	if !loaded && r.cfg.Validation && r.table.Active(f) {
		return fmt.Errorf("%w: %s", feature.ErrDispatchInFlight, f)
	}

	var err error
	if loaded {
		err = r.table.Register(f, m.Functions.Begin, m.Functions.End)
	} else {
		err = r.table.Register(f, nil, nil)
	}
	if err != nil {
		return err
	}
	r.enabled[f] = loaded
	r.logger.Info("framehost: feature toggled", "feature", f, "loaded", loaded)
	return nil
}

func (r *Runtime) module(f feature.Feature) (*feature.Module, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	r.mu.RLock()
	m, ok := r.modules[f]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", feature.ErrFeatureMissing, f)
	}
	return m, nil
}

// FeatureFunction returns the export name of the plugin of f.
func (r *Runtime) FeatureFunction(f feature.Feature, name string) (any, error) {
	m, err := r.module(f)
	if err != nil {
		return nil, err
	}
	fn, ok := m.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no export %q", ErrNotSupported, f, name)
	}
	return fn, nil
}

// SetFeatureOptions hands options for viewport and frame to the plugin of
// f, which copies them before returning.
func (r *Runtime) SetFeatureOptions(f feature.Feature, frame FrameToken, viewport framedata.Viewport, opts record.Record) error {
	if err := r.check(frame); err != nil {
		return err
	}
	m, err := r.module(f)
	if err != nil {
		return err
	}
	if m.Functions.SetOptions == nil {
		return fmt.Errorf("%w: %s takes no options", ErrNotSupported, f)
	}
	return m.Functions.SetOptions(frame.frame, viewport, opts)
}

// SharedData asks the plugin of f for data on the host's behalf.
func (r *Runtime) SharedData(f feature.Feature, requested, requester record.Record) (feature.SharedDataStatus, error) {
	return feature.GetSharedData(r.params, f, requested, requester)
}

// AllocateResources lets the plugin of f create its resources for
// viewport ahead of the first evaluation.
func (r *Runtime) AllocateResources(f feature.Feature, viewport framedata.Viewport) error {
	m, err := r.module(f)
	if err != nil {
		return err
	}
	if m.Functions.AllocateResources == nil {
		return fmt.Errorf("%w: %s manages no resources", ErrNotSupported, f)
	}
	return m.Functions.AllocateResources(viewport)
}

// FreeResources releases the resources of f for viewport. Tracked
// resource states of f are dropped since resources may be recreated.
func (r *Runtime) FreeResources(f feature.Feature, viewport framedata.Viewport) error {
	m, err := r.module(f)
	if err != nil {
		return err
	}
	if m.Functions.FreeResources == nil {
		return fmt.Errorf("%w: %s manages no resources", ErrNotSupported, f)
	}
	err = m.Functions.FreeResources(viewport)
	r.mu.RLock()
	if tr := r.trackers[f]; tr != nil {
		tr.Invalidate()
	}
	r.mu.RUnlock()
	return err
}

// Evaluate runs feature f for frame on viewport. The plugin's begin
// declares the states it needs, the backend records the barriers on cmd,
// end runs, and the resources are returned to their tagged states.
//
// inputs are call-scoped records, usually local tags; they shadow global
// tags for this call only and are never stored.
func (r *Runtime) Evaluate(ctx context.Context, f feature.Feature, frame FrameToken, viewport framedata.Viewport,
	cmd any, inputs ...record.Record) error {
	if err := r.check(frame); err != nil {
		r.metrics.ObserveEvaluate(f.String(), ResultOf(err).String())
		return err
	}

	r.mu.RLock()
	tr := r.trackers[f]
	r.mu.RUnlock()

	ev := feature.NewEval(f, frame.frame, viewport, cmd, tr, inputs...)
	recorded := false
	work := func(_ context.Context, ev *feature.Eval) error {
		recorded = true
		pending := ev.Pending()
		if len(pending) == 0 {
			return nil
		}
		r.logger.Debug("framehost: recording barriers", "feature", f, "count", len(pending))
		return r.backend.Record(ev.Cmd, pending)
	}

	err := r.table.Dispatch(ctx, ev, work)
	if pending := ev.Pending(); tr != nil && len(pending) > 0 {
		back := tr.Restore(pending)
		if recorded && len(back) > 0 {
			err = errors.Join(err, r.backend.Record(cmd, back))
		}
	}
	if err != nil {
		r.logger.Error("framehost: evaluate failed",
			"feature", f, "frame", frame.frame, "viewport", viewport, "err", err)
	}
	return err
}

// Close unloads every plugin and closes the backend. Calls after the first
// are no-ops.
func (r *Runtime) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.mu.Lock()
	features := make([]feature.Feature, 0, len(r.modules))
	for f := range r.modules {
		features = append(features, f)
	}
	slices.Sort(features)
	for i := len(features) - 1; i >= 0; i-- {
		r.unloadLocked(features[i], r.modules[features[i]])
	}
	r.mu.Unlock()

	r.backend.Close()
	r.constants.Reset()
	r.tags.Clear()
	r.logger.Info("framehost: runtime closed")
}
