// Package framedata keeps the most recent per-viewport payloads for a small
// number of frames in flight.
//
// A producer (the host) sets data for a frame ahead of the GPU submission
// that consumes it; a consumer (a plugin) later asks for the data of the
// frame it is evaluating:
//
//	opts := framedata.New[Settings](framedata.WithSlots(3), framedata.WithName("upscaler"))
//	opts.Set(frame, viewport, settings)
//	...
//	s, match := opts.Get(viewport, frame)
//	if match == framedata.NotFound {
//		return ErrMissingConstants
//	}
//
// At most one distinct payload is kept per (viewport, frame). Setting the
// same bytes again is a no-op; setting different bytes overwrites the slot,
// or fails when the cache is strict.
package framedata
