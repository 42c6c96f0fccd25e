// Package hal records resource state transitions as gogpu/wgpu HAL texture
// barriers. Importing it registers the "hal" backend.
package hal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	wgpuhal "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framehost/backend"
	"github.com/gogpu/framehost/state"
)

// ErrNoHALDevice is returned by Init when the provider does not expose a
// HAL device.
var ErrNoHALDevice = errors.New("hal: provider does not expose a hal.Device")

// Encoder is the part of hal.CommandEncoder the backend needs.
type Encoder interface {
	TransitionTextures(barriers []wgpuhal.TextureBarrier)
}

var _ Encoder = (wgpuhal.CommandEncoder)(nil)

// Backend encodes barriers into HAL command encoders.
type Backend struct {
	mu       sync.Mutex
	device   wgpuhal.Device
	provider gpucontext.DeviceProvider
}

func init() {
	backend.Register(backend.BackendHAL, func() backend.Backend {
		return New()
	})
}

// New creates an uninitialized HAL backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendHAL
}

// Init binds the backend to the provider's HAL device. The provider must
// implement HalDevice() any returning a hal.Device.
func (b *Backend) Init(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(wgpuhal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: HalDevice returned %T", ErrNoHALDevice, hp.HalDevice())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.device = device
	b.provider = provider
	return nil
}

// Device returns the bound HAL device, or nil before Init.
func (b *Backend) Device() wgpuhal.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

// Close releases the device binding. The device itself is owned by the
// provider and is not destroyed.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.device = nil
	b.provider = nil
}

// Record converts ts to texture barriers and records them on cmd, which
// must implement Encoder. Transitions of non-texture resources are
// dropped; HAL buffers need no explicit barriers.
func (b *Backend) Record(cmd any, ts []state.Transition) error {
	b.mu.Lock()
	ready := b.device != nil
	b.mu.Unlock()
	if !ready {
		return backend.ErrNotInitialized
	}

	enc, ok := cmd.(Encoder)
	if !ok {
		return fmt.Errorf("%w: %T", backend.ErrUnsupportedCommandList, cmd)
	}
	if barriers := state.Barriers(ts); len(barriers) > 0 {
		enc.TransitionTextures(barriers)
	}
	return nil
}
