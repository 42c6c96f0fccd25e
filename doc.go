// Package framehost is the host side of a rendering plugin runtime.
//
// # Overview
//
// A game or engine hands per-frame data to independently built feature
// plugins (upscalers, denoisers, frame generators) without knowing how
// each one works. framehost keeps that data straight across frames in
// flight:
//   - versioned records ([record]) so hosts and plugins built against
//     different releases interoperate
//   - a parameter store ([params]) through which plugins find the
//     runtime's accessors and each other's shared data
//   - frame slot caches ([framedata]) holding constants and options per
//     viewport for the last few frames
//   - tagged resources ([resource]) resolved per call or globally
//   - a resource state tracker ([state]) turning declared needs into
//     barriers
//   - the dispatch table ([feature]) running begin, backend work and end
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/framehost"
//	    _ "github.com/gogpu/framehost/feature/sharpen"
//	)
//
//	rt, err := framehost.New(framehost.WithBackend("null"))
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	if err := rt.LoadPlugin("sharpen"); err != nil {
//	    return err
//	}
//	frame := rt.NewFrameToken(nil)
//	rt.SetFeatureOptions(feature.FeatureSharpen, frame, 0, sharpen.NewOptions(sharpen.ModeOn, 0.5))
//	rt.SetTag(0, frame, resource.NewTag(resource.BufferTypeScalingInputColor, color, resource.ValidUntilPresent))
//	err = rt.Evaluate(ctx, feature.FeatureSharpen, frame, 0, encoder)
//
// # Logging
//
// framehost is silent by default. See [SetLogger].
package framehost
