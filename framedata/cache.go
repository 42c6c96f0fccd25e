package framedata

import (
	"bytes"
	"log/slog"
	"sort"
	"sync"
)

// DefaultSlots is the default number of frames kept per viewport.
const DefaultSlots = 3

// Frame identifies one frame. Frames are minted by a single authority; see
// framehost.Runtime.NewFrameToken.
type Frame uint32

// Viewport identifies one independent render target within a frame.
type Viewport uint32

// Match describes how a Get was satisfied.
type Match uint8

const (
	// NotFound means no data exists for the viewport (nor viewport 0).
	NotFound Match = iota
	// Fallback means no slot matched the frame; the most recent one was used.
	Fallback
	// Exact means a slot for the requested frame was found.
	Exact
)

var matchNames = [...]string{
	NotFound: "not_found",
	Fallback: "fallback",
	Exact:    "exact",
}

// String returns the name of the match kind.
func (m Match) String() string {
	if int(m) < len(matchNames) {
		return matchNames[m]
	}
	return "unknown"
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	slots    int
	strict   bool
	name     string
	logger   *slog.Logger
	observer func(name string, m Match)
}

// WithSlots sets the number of frames kept per viewport. Values below 1
// are ignored.
func WithSlots(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.slots = n
		}
	}
}

// WithStrict makes the cache require exactly one payload per frame:
// conflicting sets fail and fallback lookups are logged as errors.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithName sets the name used in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver registers a function called with the outcome of every Get.
// It is called with the cache lock released.
func WithObserver(fn func(name string, m Match)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// slot holds one encoded payload.
type slot struct {
	data  []byte
	frame Frame
	used  bool
}

// ring is the per-viewport circular buffer.
type ring struct {
	slots     []slot
	index     int // next slot to write
	lastIndex int // most recently written slot
}

// Cache stores payloads per (viewport, frame).
//
// Cache is safe for concurrent use.
type Cache[T any] struct {
	mu        sync.Mutex
	viewports map[Viewport]*ring
	codec     Codec[T]
	opts      options
}

// New creates a cache using BinaryCodec.
func New[T any](opts ...Option) *Cache[T] {
	return NewWithCodec[T](BinaryCodec[T]{}, opts...)
}

// NewWithCodec creates a cache using the given codec.
func NewWithCodec[T any](codec Codec[T], opts ...Option) *Cache[T] {
	o := options{slots: DefaultSlots, name: "framedata"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Cache[T]{
		viewports: make(map[Viewport]*ring),
		codec:     codec,
		opts:      o,
	}
}

// Slots returns the number of frames kept per viewport.
func (c *Cache[T]) Slots() int { return c.opts.slots }

// Strict reports whether the cache requires one payload per frame.
func (c *Cache[T]) Strict() bool { return c.opts.strict }

// Set records v for the given frame and viewport.
//
// It returns false only when v cannot be encoded, or when the cache is
// strict and a different payload was already recorded for this frame.
func (c *Cache[T]) Set(frame Frame, viewport Viewport, v T) bool {
	data, err := c.codec.Marshal(v)
	if err != nil {
		c.opts.logger.Error("framedata: cannot encode payload",
			"cache", c.opts.name, "viewport", viewport, "frame", frame, "err", err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.viewports[viewport]
	if !ok {
		r = &ring{slots: make([]slot, c.opts.slots)}
		c.viewports[viewport] = r
	}

	for i := range r.slots {
		s := &r.slots[i]
		if !s.used || s.frame != frame {
			continue
		}
		if bytes.Equal(s.data, data) {
			return true
		}
		if c.opts.strict {
			c.opts.logger.Error("framedata: conflicting data set twice for the same frame",
				"cache", c.opts.name, "viewport", viewport, "frame", frame)
			return false
		}
		s.data = data
		r.lastIndex = i
		c.opts.logger.Debug("framedata: overwrote frame data",
			"cache", c.opts.name, "viewport", viewport, "frame", frame)
		return true
	}

	r.slots[r.index] = slot{data: data, frame: frame, used: true}
	r.lastIndex = r.index
	r.index = (r.index + 1) % len(r.slots)
	return true
}

// Get returns the payload for viewport and frame.
//
// A slot recorded for exactly this frame wins. Otherwise the most recently
// written slot is returned as a Fallback. A viewport that was never written
// falls back to viewport 0. When neither exists the result is NotFound and
// the zero value.
func (c *Cache[T]) Get(viewport Viewport, frame Frame) (T, Match) {
	v, m := c.get(viewport, frame)
	if c.opts.observer != nil {
		c.opts.observer(c.opts.name, m)
	}
	return v, m
}

func (c *Cache[T]) get(viewport Viewport, frame Frame) (T, Match) {
	var zero T

	c.mu.Lock()
	r, ok := c.viewports[viewport]
	if !ok && viewport != 0 {
		r, ok = c.viewports[0]
	}
	if !ok {
		c.mu.Unlock()
		return zero, NotFound
	}

	n := len(r.slots)
	var data []byte
	match := NotFound
	for i := range n {
		s := r.slots[(r.lastIndex+i)%n]
		if s.used && s.frame == frame {
			data, match = s.data, Exact
			break
		}
	}
	var lastFrame Frame
	if match == NotFound {
		last := r.slots[r.lastIndex]
		if !last.used {
			c.mu.Unlock()
			return zero, NotFound
		}
		data, match, lastFrame = last.data, Fallback, last.frame
	}
	c.mu.Unlock()

	if match == Fallback {
		attrs := []any{"cache", c.opts.name, "viewport", viewport, "frame", frame, "using", lastFrame}
		if c.opts.strict {
			c.opts.logger.Error("framedata: no data for frame, using most recent", attrs...)
		} else {
			c.opts.logger.Warn("framedata: no data for frame, using most recent", attrs...)
		}
	}

	v, err := c.codec.Unmarshal(data)
	if err != nil {
		c.opts.logger.Error("framedata: cannot decode payload",
			"cache", c.opts.name, "viewport", viewport, "frame", frame, "err", err)
		return zero, NotFound
	}
	return v, match
}

// Viewports returns the viewports that have data, in ascending order.
func (c *Cache[T]) Viewports() []Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]Viewport, 0, len(c.viewports))
	for id := range c.viewports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Remove drops all data for viewport. It reports whether any existed.
func (c *Cache[T]) Remove(viewport Viewport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.viewports[viewport]; !ok {
		return false
	}
	delete(c.viewports, viewport)
	return true
}

// Reset drops all data. Called at plugin teardown.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewports = make(map[Viewport]*ring)
}
