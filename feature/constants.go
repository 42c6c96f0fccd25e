package feature

import (
	"errors"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/record"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

// ErrMissingConstants is returned when no constants were set for a
// viewport, neither for the requested frame nor any earlier one.
var ErrMissingConstants = errors.New("feature: missing constants")

// Constants are the per-frame camera and motion vector parameters every
// feature shares. The layout is fixed-size so identical values encode to
// identical bytes.
type Constants struct {
	CameraViewToClip [16]float32
	ClipToCameraView [16]float32
	ClipToPrevClip   [16]float32
	PrevClipToClip   [16]float32

	JitterOffset [2]float32
	MVecScale    [2]float32

	CameraPinholeOffset [2]float32
	CameraPos           [3]float32
	CameraUp            [3]float32
	CameraRight         [3]float32
	CameraFwd           [3]float32

	CameraNear        float32
	CameraFar         float32
	CameraFOV         float32
	CameraAspectRatio float32

	// MotionVectorsInvalidValue marks pixels without valid motion.
	MotionVectorsInvalidValue float32

	DepthInverted          bool
	CameraMotionIncluded   bool
	MotionVectors3D        bool
	Reset                  bool
	OrthographicProjection bool
	MotionVectorsDilated   bool
	MotionVectorsJittered  bool
}

// Accessor functions the runtime publishes in the parameter store.
type (
	// GetTagFunc resolves a tagged resource; see resource.GetTagged.
	GetTagFunc func(buffer resource.BufferType, viewport framedata.Viewport, frame framedata.Frame,
		optional bool, inputs ...record.Record) (resource.Tagged, error)

	// GetConstantsFunc returns the constants of viewport for frame. A
	// fallback to an earlier frame is reported through the Match.
	GetConstantsFunc func(viewport framedata.Viewport, frame framedata.Frame) (Constants, framedata.Match, error)

	// NewTrackerFunc creates a state tracker for one feature instance.
	NewTrackerFunc func() *state.Tracker
)
