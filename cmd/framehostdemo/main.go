// Command framehostdemo drives the sharpen feature through a few frames on
// a headless device and prints what the runtime recorded.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	wgpuhal "github.com/gogpu/wgpu/hal"
	"github.com/prometheus/common/expfmt"

	"github.com/gogpu/framehost"
	"github.com/gogpu/framehost/backend"
	_ "github.com/gogpu/framehost/backend/hal"
	"github.com/gogpu/framehost/config"
	"github.com/gogpu/framehost/device"
	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/feature/sharpen"
	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/metrics"
	"github.com/gogpu/framehost/resource"
)

// VkImageLayout values used when tagging.
const (
	layoutShaderReadOnly = 5
	layoutTransferDst    = 7
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML configuration file")
		backendName = flag.String("backend", "", "backend name (default: first available)")
		frames      = flag.Int("frames", 4, "number of frames to evaluate")
		viewports   = flag.Int("viewports", 1, "number of viewports per frame")
		width       = flag.Int("width", 1280, "render width")
		height      = flag.Int("height", 720, "render height")
		dumpMetrics = flag.Bool("metrics", false, "print metrics after the run")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if len(cfg.Plugins) == 0 {
		cfg.Plugins = []string{sharpen.Name}
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatal(err)
	}
	framehost.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dev, err := device.OpenNoop()
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()

	m, err := metrics.New(nil)
	if err != nil {
		log.Fatal(err)
	}

	rt, err := framehost.New(
		framehost.WithConfig(cfg),
		framehost.WithDeviceProvider(dev),
		framehost.WithMetrics(m),
	)
	if err != nil {
		log.Fatalf("Failed to create runtime: %v", err)
	}
	defer rt.Close()

	w, h := uint32(*width), uint32(*height)
	in, err := dev.CreateTexture("scaling-input", w/2, h/2, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.DestroyTexture(in)
	out, err := dev.CreateTexture("scaling-output", w, h, gputypes.TextureUsageStorageBinding)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.DestroyTexture(out)

	ctx := context.Background()
	for i := range *frames {
		frame := rt.NewFrameToken(nil)
		for v := range *viewports {
			vp := framedata.Viewport(v)
			if err := runViewport(ctx, rt, dev, frame, vp, i, in, out, w, h); err != nil {
				log.Printf("frame %d viewport %d: %v (%s)", frame.Frame(), vp, err, framehost.ResultOf(err))
			}
		}
	}

	fmt.Printf("backend: %s, api: %s, features: %v\n", rt.Backend().Name(), rt.API(), rt.Features())
	if nb, ok := rt.Backend().(*backend.NullBackend); ok {
		fmt.Printf("transitions recorded: %d\n", nb.Total())
	}

	if *dumpMetrics {
		mfs, err := m.Gatherer().Gather()
		if err != nil {
			log.Fatal(err)
		}
		for _, mf := range mfs {
			if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
				log.Fatal(err)
			}
		}
	}
}

func runViewport(ctx context.Context, rt *framehost.Runtime, dev *device.Headless, frame framehost.FrameToken,
	vp framedata.Viewport, i int, in, out wgpuhal.Texture, w, h uint32) error {
	consts := framehost.Constants{
		CameraNear:        0.1,
		CameraFar:         1000,
		CameraFOV:         1.0,
		CameraAspectRatio: float32(w) / float32(h),
		MVecScale:         [2]float32{1 / float32(w), 1 / float32(h)},
		JitterOffset:      [2]float32{float32(i%2) - 0.5, 0.5 - float32(i%2)},
	}
	if err := rt.SetConstants(consts, frame, vp); err != nil {
		return err
	}
	opts := sharpen.NewOptions(sharpen.ModeOn, 0.5)
	if err := rt.SetFeatureOptions(feature.FeatureSharpen, frame, vp, opts); err != nil {
		return err
	}

	err := rt.SetTag(vp, frame,
		resource.NewTag(resource.BufferTypeScalingInputColor,
			resource.NewTexture(in, layoutTransferDst, w/2, h/2, 0), resource.ValidUntilPresent),
		resource.NewTag(resource.BufferTypeScalingOutputColor,
			resource.NewTexture(out, layoutShaderReadOnly, w, h, 0), resource.ValidUntilPresent),
	)
	if err != nil {
		return err
	}

	if rt.Backend().Name() != backend.BackendHAL {
		return rt.Evaluate(ctx, feature.FeatureSharpen, frame, vp, nil)
	}
	return dev.Encode("sharpen", func(enc wgpuhal.CommandEncoder) error {
		return rt.Evaluate(ctx, feature.FeatureSharpen, frame, vp, enc)
	})
}
