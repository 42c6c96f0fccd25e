// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device provides the GPU device handles a Runtime is created
// with.
//
// The host owns the device: framehost RECEIVES it through a Handle and
// never creates one itself. [Headless] is the exception for tools and
// tests, opening a HAL device without a surface.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// ErrClosed is returned when using a closed Headless device.
var ErrClosed = errors.New("device: closed")

// Handle is an alias for gpucontext.DeviceProvider.
type Handle = gpucontext.DeviceProvider

// NullHandle is a Handle without a device. Used with the null backend.
type NullHandle struct{}

// Device returns nil for the null device.
func (NullHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ Handle = NullHandle{}

// Headless is a Handle backed by a HAL device with no surface. It exposes
// HalDevice and HalQueue, which the hal backend binds to.
type Headless struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	format   gputypes.TextureFormat
}

var _ Handle = (*Headless)(nil)

// OpenNoop opens the first adapter of the noop HAL API. The device
// accepts every call and renders nothing.
func OpenNoop() (*Headless, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("device: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("device: no adapters found")
	}
	openDev, err := adapters[0].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("device: open device: %w", err)
	}
	return &Headless{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		format:   gputypes.TextureFormatBGRA8Unorm,
	}, nil
}

// Device returns nil: the device is only reachable through HalDevice.
func (h *Headless) Device() gpucontext.Device { return nil }

// Queue returns nil: the queue is only reachable through HalQueue.
func (h *Headless) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (h *Headless) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns the format textures are created with by default.
func (h *Headless) SurfaceFormat() gputypes.TextureFormat { return h.format }

// HalDevice returns the hal.Device, or nil after Close.
func (h *Headless) HalDevice() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device == nil {
		return nil
	}
	return h.device
}

// HalQueue returns the hal.Queue, or nil after Close.
func (h *Headless) HalQueue() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.queue == nil {
		return nil
	}
	return h.queue
}

// TextureDescriptor returns a 2D single-sample texture descriptor with one
// mip level.
func TextureDescriptor(label string, width, height uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	}
}

// CreateTexture creates a texture in the surface format.
func (h *Headless) CreateTexture(label string, width, height uint32, usage gputypes.TextureUsage) (hal.Texture, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device == nil {
		return nil, ErrClosed
	}
	tex, err := h.device.CreateTexture(TextureDescriptor(label, width, height, h.format, usage))
	if err != nil {
		return nil, fmt.Errorf("device: create texture %q: %w", label, err)
	}
	return tex, nil
}

// DestroyTexture releases a texture created by CreateTexture.
func (h *Headless) DestroyTexture(tex hal.Texture) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device != nil && tex != nil {
		h.device.DestroyTexture(tex)
	}
}

// Encode runs fn with a command encoder that has begun encoding, then
// ends the encoding and frees the command buffer.
func (h *Headless) Encode(label string, fn func(hal.CommandEncoder) error) error {
	h.mu.Lock()
	device := h.device
	h.mu.Unlock()
	if device == nil {
		return ErrClosed
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("device: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("device: begin encoding: %w", err)
	}
	fnErr := fn(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return errors.Join(fnErr, fmt.Errorf("device: end encoding: %w", err))
	}
	device.FreeCommandBuffer(cmdBuf)
	return fnErr
}

// Close destroys the device and instance. Calls after the first are
// no-ops.
func (h *Headless) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device == nil {
		return
	}
	h.device.Destroy()
	h.instance.Destroy()
	h.device, h.queue, h.instance = nil, nil, nil
}
