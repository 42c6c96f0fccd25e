package sharpen

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/internal/shader"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/record"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

// Name is the registry name of the plugin.
const Name = "sharpen"

// Version is reported in the manifest.
const Version = "1.1.0"

var (
	// ErrMissingOptions is returned when a viewport is evaluated before
	// options were set for it.
	ErrMissingOptions = errors.New("sharpen: missing options")

	// ErrConflictingOptions is returned in strict mode when different
	// options are set twice for one frame.
	ErrConflictingOptions = errors.New("sharpen: conflicting options for frame")
)

//go:embed shaders/sharpen.wgsl
var sharpenShaderWGSL string

func init() {
	feature.Register(Name, func() feature.Plugin { return New() })
}

// Observation is what one evaluation saw in begin.
type Observation struct {
	Frame    framedata.Frame
	Viewport framedata.Viewport

	Settings      Settings
	SettingsMatch framedata.Match

	Input  resource.Tagged
	Output resource.Tagged

	Constants      feature.Constants
	ConstantsMatch framedata.Match
}

// Plugin implements feature.Plugin.
type Plugin struct {
	mu           sync.Mutex
	logger       *slog.Logger
	getTag       feature.GetTagFunc
	getConstants feature.GetConstantsFunc
	settings     *framedata.Cache[Settings]
	allocated    map[framedata.Viewport]bool
	program      *shader.Program
	observations []Observation
	history      int
	completed    int
}

var _ feature.Plugin = (*Plugin)(nil)

// New returns an unstarted plugin.
func New() *Plugin {
	return &Plugin{allocated: make(map[framedata.Viewport]bool)}
}

// Manifest implements feature.Plugin.
func (p *Plugin) Manifest() feature.Manifest {
	return feature.Manifest{
		Name:     Name,
		Feature:  feature.FeatureSharpen,
		Version:  Version,
		Requires: []string{params.KeyGetTag, params.KeyGetConstants},
	}
}

// Startup implements feature.Plugin.
func (p *Plugin) Startup(host feature.Host) (feature.Exports, error) {
	store := host.Params()
	getTag, err := params.Lookup[feature.GetTagFunc](store, params.KeyGetTag)
	if err != nil {
		return nil, err
	}
	getConstants, err := params.Lookup[feature.GetConstantsFunc](store, params.KeyGetConstants)
	if err != nil {
		return nil, err
	}
	slots, ok, err := params.Optional[int](store, params.KeyFramesInFlight)
	if err != nil {
		return nil, err
	}
	if !ok {
		slots = framedata.DefaultSlots
	}
	strict, _, err := params.Optional[bool](store, params.KeyStrictFrameData)
	if err != nil {
		return nil, err
	}

	device, hasDevice, err := params.Optional[hal.Device](store, params.KeyHALDevice)
	if err != nil {
		return nil, err
	}

	logger := host.Logger().With("plugin", Name)

	program, err := shader.Compile(Name, sharpenShaderWGSL)
	if err != nil {
		return nil, err
	}
	if hasDevice {
		if err := program.Bind(device); err != nil {
			return nil, err
		}
		logger.Debug("shader module created", "spirv_words", len(program.SPIRV))
	}

	p.mu.Lock()
	p.program = program
	p.history = max(slots, 1)
	p.observations = nil
	p.logger = logger
	p.getTag = getTag
	p.getConstants = getConstants
	p.settings = framedata.New[Settings](
		framedata.WithSlots(slots),
		framedata.WithStrict(strict),
		framedata.WithName(Name+".options"),
		framedata.WithLogger(logger),
	)
	p.mu.Unlock()

	return feature.Exports{
		feature.ExportBeginEvaluation:   feature.EvaluateFunc(p.begin),
		feature.ExportEndEvaluation:     feature.EvaluateFunc(p.end),
		feature.ExportSetOptions:        feature.SetOptionsFunc(p.setOptions),
		feature.ExportGetSharedData:     feature.SharedDataFunc(p.sharedData),
		feature.ExportAllocateResources: feature.ResourcesFunc(p.allocate),
		feature.ExportFreeResources:     feature.ResourcesFunc(p.free),
	}, nil
}

// Shutdown implements feature.Plugin.
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settings != nil {
		p.settings.Reset()
	}
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
	p.observations = nil
	clear(p.allocated)
}

// ShaderModule returns the compute shader module bound at startup, or nil
// when no HAL device was published.
func (p *Plugin) ShaderModule() hal.ShaderModule {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.program == nil {
		return nil
	}
	return p.program.Module()
}

func (p *Plugin) setOptions(frame framedata.Frame, viewport framedata.Viewport, opts record.Record) error {
	o := record.Find[Options](opts)
	if o == nil {
		return fmt.Errorf("%w: no options record in chain", ErrMissingOptions)
	}
	if !p.settings.Set(frame, viewport, settingsOf(o)) {
		return fmt.Errorf("%w: frame %d viewport %d", ErrConflictingOptions, frame, viewport)
	}
	return nil
}

func (p *Plugin) begin(_ context.Context, ev *feature.Eval) error {
	s, m := p.settings.Get(ev.Viewport, ev.Frame)
	if m == framedata.NotFound {
		return fmt.Errorf("%w: viewport %d", ErrMissingOptions, ev.Viewport)
	}
	obs := Observation{
		Frame:         ev.Frame,
		Viewport:      ev.Viewport,
		Settings:      s,
		SettingsMatch: m,
	}
	if s.Mode == ModeOff {
		p.observe(obs)
		return nil
	}

	in, err := p.getTag(resource.BufferTypeScalingInputColor, ev.Viewport, ev.Frame, false, ev.Inputs...)
	if err != nil {
		return err
	}
	out, err := p.getTag(resource.BufferTypeScalingOutputColor, ev.Viewport, ev.Frame, true, ev.Inputs...)
	if err != nil {
		return err
	}
	obs.Input, obs.Output = in, out

	consts, cm, err := p.getConstants(ev.Viewport, ev.Frame)
	switch {
	case err == nil:
		obs.Constants, obs.ConstantsMatch = consts, cm
	case !errors.Is(err, feature.ErrMissingConstants):
		return err
	}

	if ev.Tracker() != nil {
		if err := ev.Require(&in.Resource, state.TextureRead); err != nil {
			return err
		}
		if out.IsValid() {
			if err := ev.Require(&out.Resource, state.StorageWrite); err != nil {
				return err
			}
		}
	}

	p.observe(obs)
	return nil
}

func (p *Plugin) end(context.Context, *feature.Eval) error {
	p.mu.Lock()
	p.completed++
	p.mu.Unlock()
	return nil
}

func (p *Plugin) sharedData(requested, requester record.Record) feature.SharedDataStatus {
	if st := feature.CheckSharedDataRequest(requested, requester, SettingsRequestStructType); st != feature.SharedDataOK {
		return st
	}
	req, ok := requested.(*SettingsRequest)
	if !ok {
		return feature.SharedDataInvalidRequestedData
	}
	s, m := p.settings.Get(req.Viewport, req.Frame)
	if record.Writable(req, 2) {
		req.Match = m
	}
	// Settings stay untouched when nothing was set for the viewport.
	if m == framedata.NotFound {
		return feature.SharedDataInvalidRequestedData
	}
	req.Settings = s
	return feature.SharedDataOK
}

func (p *Plugin) allocate(viewport framedata.Viewport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allocated[viewport] = true
	p.logger.Debug("sharpen: resources allocated", "viewport", viewport)
	return nil
}

func (p *Plugin) free(viewport framedata.Viewport) error {
	p.mu.Lock()
	delete(p.allocated, viewport)
	p.mu.Unlock()
	p.settings.Remove(viewport)
	p.logger.Debug("sharpen: resources freed", "viewport", viewport)
	return nil
}

func (p *Plugin) observe(o Observation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observations = append(p.observations, o)
	if over := len(p.observations) - p.history; over > 0 {
		n := copy(p.observations, p.observations[over:])
		clear(p.observations[n:])
		p.observations = p.observations[:n]
	}
}

// Observations returns what the most recent begins saw, oldest first. At
// most one entry per frame in flight is kept.
func (p *Plugin) Observations() []Observation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Observation(nil), p.observations...)
}

// Completed returns the number of evaluations that reached end.
func (p *Plugin) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Allocated reports whether resources are allocated for viewport.
func (p *Plugin) Allocated(viewport framedata.Viewport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated[viewport]
}
