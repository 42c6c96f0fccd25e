// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestNullHandle(t *testing.T) {
	var handle Handle = NullHandle{}

	if handle.Device() != nil {
		t.Error("NullHandle.Device() should return nil")
	}
	if handle.Queue() != nil {
		t.Error("NullHandle.Queue() should return nil")
	}
	if handle.Adapter() != nil {
		t.Error("NullHandle.Adapter() should return nil")
	}
	if handle.SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Error("NullHandle.SurfaceFormat() should return Undefined")
	}
}

func TestTextureDescriptor(t *testing.T) {
	desc := TextureDescriptor("color", 256, 128, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageTextureBinding)

	if desc.Size.Width != 256 || desc.Size.Height != 128 || desc.Size.DepthOrArrayLayers != 1 {
		t.Errorf("Size = %+v, want 256x128x1", desc.Size)
	}
	if desc.MipLevelCount != 1 || desc.SampleCount != 1 {
		t.Errorf("MipLevelCount = %d, SampleCount = %d, want 1, 1", desc.MipLevelCount, desc.SampleCount)
	}
	if desc.Dimension != gputypes.TextureDimension2D {
		t.Errorf("Dimension = %v, want 2D", desc.Dimension)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm || desc.Label != "color" {
		t.Errorf("Format = %v, Label = %q", desc.Format, desc.Label)
	}
}

func TestHeadless(t *testing.T) {
	h, err := OpenNoop()
	if err != nil {
		t.Fatalf("OpenNoop() error = %v", err)
	}
	defer h.Close()

	if _, ok := h.HalDevice().(hal.Device); !ok {
		t.Fatalf("HalDevice() = %T, want hal.Device", h.HalDevice())
	}
	if _, ok := h.HalQueue().(hal.Queue); !ok {
		t.Fatalf("HalQueue() = %T, want hal.Queue", h.HalQueue())
	}
	if h.SurfaceFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat() = %v", h.SurfaceFormat())
	}

	tex, err := h.CreateTexture("input", 64, 64, gputypes.TextureUsageTextureBinding)
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	defer h.DestroyTexture(tex)

	called := false
	err = h.Encode("test", func(enc hal.CommandEncoder) error {
		called = true
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopyDst,
				NewUsage: gputypes.TextureUsageTextureBinding,
			},
		}})
		return nil
	})
	if err != nil || !called {
		t.Errorf("Encode() = %v, called %v", err, called)
	}

	want := errors.New("record failed")
	if err := h.Encode("failing", func(hal.CommandEncoder) error { return want }); !errors.Is(err, want) {
		t.Errorf("Encode() = %v, want the callback error", err)
	}
}

func TestHeadlessClose(t *testing.T) {
	h, err := OpenNoop()
	if err != nil {
		t.Fatal(err)
	}
	h.Close()
	h.Close()

	if h.HalDevice() != nil || h.HalQueue() != nil {
		t.Error("device still exposed after Close")
	}
	if _, err := h.CreateTexture("x", 1, 1, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateTexture() after Close = %v", err)
	}
	if err := h.Encode("x", func(hal.CommandEncoder) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Encode() after Close = %v", err)
	}
}
