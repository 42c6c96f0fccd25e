package sharpen

import (
	"github.com/google/uuid"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/record"
)

// Record type tags.
var (
	OptionsStructType         = uuid.MustParse("3c8b2f0e-6a41-4e57-9d1a-0b6e5c2f7a31")
	SettingsRequestStructType = uuid.MustParse("3c8b2f0e-6a41-4e57-9d1a-0b6e5c2f7a32")
)

// Current record versions.
const (
	OptionsVersion         = 2
	SettingsRequestVersion = 2
)

// DefaultRadius is used when options predate the Radius field.
const DefaultRadius = 1.0

// Mode switches the feature on or off for a viewport.
type Mode uint32

const (
	ModeOff Mode = iota
	ModeOn
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeOn:
		return "on"
	default:
		return "unknown"
	}
}

// Options are the per-viewport parameters set by the host.
type Options struct {
	record.Header

	Mode      Mode
	Sharpness float32

	// Version 2.

	Radius float32
}

// StructType implements record.Typed.
func (Options) StructType() uuid.UUID { return OptionsStructType }

// NewOptions returns options at the current version.
func NewOptions(mode Mode, sharpness float32) *Options {
	return &Options{
		Header:    record.NewHeader(OptionsStructType, OptionsVersion),
		Mode:      mode,
		Sharpness: sharpness,
		Radius:    DefaultRadius,
	}
}

// Settings is the copy of Options the plugin keeps per frame. It holds no
// pointers so it can live in a frame slot cache.
type Settings struct {
	Mode      Mode
	Sharpness float32
	Radius    float32
}

func settingsOf(o *Options) Settings {
	s := Settings{Mode: o.Mode, Sharpness: o.Sharpness, Radius: DefaultRadius}
	if o.AtLeast(2) {
		s.Radius = o.Radius
	}
	return s
}

// SettingsRequest asks the plugin, through shared data, for the settings
// in effect for a frame.
type SettingsRequest struct {
	record.Header

	Viewport framedata.Viewport
	Frame    framedata.Frame
	Settings Settings

	// Version 2.

	// Match reports how the frame was resolved.
	Match framedata.Match
}

// StructType implements record.Typed.
func (SettingsRequest) StructType() uuid.UUID { return SettingsRequestStructType }

// NewSettingsRequest returns a request at the current version.
func NewSettingsRequest(viewport framedata.Viewport, frame framedata.Frame) *SettingsRequest {
	return &SettingsRequest{
		Header:   record.NewHeader(SettingsRequestStructType, SettingsRequestVersion),
		Viewport: viewport,
		Frame:    frame,
	}
}
