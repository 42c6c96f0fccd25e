package framehost

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"
	wgpuhal "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framehost/backend"
	"github.com/gogpu/framehost/backend/hal"
	"github.com/gogpu/framehost/device"
	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/feature/sharpen"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/resource"
)

const (
	vkLayoutShaderReadOnly = 5
	vkLayoutTransferDst    = 7
)

func TestEvaluateHALBackend(t *testing.T) {
	dev, err := device.OpenNoop()
	if err != nil {
		t.Fatalf("OpenNoop() error = %v", err)
	}
	defer dev.Close()

	rt, err := New(
		WithDeviceProvider(dev),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithPlugins(sharpen.Name),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer rt.Close()

	if rt.Backend().Name() != backend.BackendHAL {
		t.Fatalf("Backend().Name() = %q, want the hal backend to win with a HAL device", rt.Backend().Name())
	}
	if _, ok := rt.Backend().(*hal.Backend); !ok {
		t.Fatalf("Backend() = %T", rt.Backend())
	}
	if _, err := params.Lookup[wgpuhal.Device](rt.Params(), params.KeyHALDevice); err != nil {
		t.Errorf("HAL device not published: %v", err)
	}
	if got, _ := rt.Params().Get(feature.SharedDataKey(feature.FeatureSharpen)); got == nil {
		t.Error("sharpen shared data not published")
	}

	in, err := dev.CreateTexture("input", 64, 64, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.DestroyTexture(in)
	out, err := dev.CreateTexture("output", 128, 128, gputypes.TextureUsageStorageBinding)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.DestroyTexture(out)

	f := rt.NewFrameToken(nil)
	if err := rt.SetFeatureOptions(feature.FeatureSharpen, f, 0, sharpen.NewOptions(sharpen.ModeOn, 0.5)); err != nil {
		t.Fatal(err)
	}
	err = rt.SetTag(0, f,
		resource.NewTag(resource.BufferTypeScalingInputColor,
			resource.NewTexture(in, vkLayoutTransferDst, 64, 64, 0), resource.ValidUntilPresent),
		resource.NewTag(resource.BufferTypeScalingOutputColor,
			resource.NewTexture(out, vkLayoutShaderReadOnly, 128, 128, 0), resource.ValidUntilPresent),
	)
	if err != nil {
		t.Fatal(err)
	}

	err = dev.Encode("sharpen", func(enc wgpuhal.CommandEncoder) error {
		return rt.Evaluate(context.Background(), feature.FeatureSharpen, f, 0, enc)
	})
	if err != nil {
		t.Errorf("Evaluate() with a HAL encoder = %v", err)
	}

	err = rt.Evaluate(context.Background(), feature.FeatureSharpen, f, 0, "not an encoder")
	if !errors.Is(err, backend.ErrUnsupportedCommandList) {
		t.Errorf("Evaluate() with a foreign command list = %v", err)
	}
	if ResultOf(err) != ResultInvalidParameter {
		t.Errorf("ResultOf() = %v, want invalid_parameter", ResultOf(err))
	}
}
