package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/record"
)

var (
	// ErrMissingInput is returned when a mandatory tag is neither passed
	// locally nor set globally.
	ErrMissingInput = errors.New("resource: missing input")

	// ErrTagExpired is returned when a global tag whose lifecycle is bound
	// to one frame is requested for another frame.
	ErrTagExpired = errors.New("resource: tagged resource no longer valid")

	// ErrMissingState is returned when a tag omits the native state on an
	// API that requires it.
	ErrMissingState = errors.New("resource: native state required")

	// ErrExtentOutOfBounds is returned when a tag extent exceeds the
	// resource dimensions.
	ErrExtentOutOfBounds = errors.New("resource: extent outside resource")
)

// Tagged is what a consumer observes for one buffer type: a copy of the
// tagged resource taken at lookup time.
type Tagged struct {
	Resource  Resource
	Buffer    BufferType
	Lifecycle Lifecycle
	Extent    Extent

	// Precision is copied from a PrecisionInfo chained onto the tag.
	Precision    PrecisionInfo
	HasPrecision bool

	// Local reports whether the tag came from the evaluate call's inputs.
	Local bool
}

// IsValid reports whether the lookup produced a resource. Optional lookups
// that found nothing return an invalid Tagged.
func (t *Tagged) IsValid() bool {
	return t.Resource.IsValid()
}

// Rect returns the extent resolved against the resource size.
func (t *Tagged) Rect() Extent {
	return t.Extent.Resolve(t.Resource.Width, t.Resource.Height)
}

func snapshot(tag *Tag, local bool) Tagged {
	out := Tagged{
		Resource:  *tag.Resource,
		Buffer:    tag.Buffer,
		Lifecycle: tag.Lifecycle,
		Extent:    tag.Extent,
		Local:     local,
	}
	// The copy must not alias the caller's chain.
	out.Resource.Next = nil
	if p := record.Find[PrecisionInfo](tag.Next); p != nil {
		out.Precision = *p
		out.Precision.Next = nil
		out.HasPrecision = true
	}
	return out
}

type tagKey struct {
	viewport framedata.Viewport
	buffer   BufferType
}

type tagEntry struct {
	tagged Tagged
	frame  framedata.Frame
}

// Store holds global tags, the most recent one per (viewport, buffer type).
//
// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	api    API
	tags   map[tagKey]tagEntry
	logger *slog.Logger
}

// NewStore creates an empty tag store for the given API. A nil logger
// disables logging.
func NewStore(api API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		api:    api,
		tags:   make(map[tagKey]tagEntry),
		logger: logger,
	}
}

// API returns the API the store validates tags for.
func (s *Store) API() API { return s.api }

// Validate checks a tag that sets a resource.
func Validate(api API, t *Tag) error {
	if t.Removes() {
		return nil
	}
	r := t.Resource
	if r.Kind == KindTex2D && api == APIVulkan && r.State == 0 {
		// VK_IMAGE_LAYOUT_UNDEFINED cannot describe tagged contents.
		return fmt.Errorf("%w: %s on %s", ErrMissingState, t.Buffer, api)
	}
	if r.Kind == KindTex2D && !t.Extent.Within(r.Width, r.Height) {
		return fmt.Errorf("%w: %s extent %+v, resource %dx%d",
			ErrExtentOutOfBounds, t.Buffer, t.Extent, r.Width, r.Height)
	}
	return nil
}

// Set records tags for viewport as of frame. A tag without a resource
// removes the buffer type. Tags are validated first; on error nothing is
// recorded.
func (s *Store) Set(viewport framedata.Viewport, frame framedata.Frame, tags ...*Tag) error {
	for _, t := range tags {
		if t == nil {
			continue
		}
		if err := Validate(s.api, t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tags {
		if t == nil {
			continue
		}
		key := tagKey{viewport: viewport, buffer: t.Buffer}
		if t.Removes() {
			delete(s.tags, key)
			s.logger.Debug("resource: tag removed", "viewport", viewport, "buffer", t.Buffer)
			continue
		}
		s.tags[key] = tagEntry{tagged: snapshot(t, false), frame: frame}
		s.logger.Debug("resource: tag set",
			"viewport", viewport, "buffer", t.Buffer, "frame", frame, "lifecycle", t.Lifecycle)
	}
	return nil
}

// Lookup returns the global tag for (viewport, buffer) as it must be seen
// by an evaluation of frame.
func (s *Store) Lookup(viewport framedata.Viewport, buffer BufferType, frame framedata.Frame) (Tagged, error) {
	s.mu.RLock()
	e, ok := s.tags[tagKey{viewport: viewport, buffer: buffer}]
	s.mu.RUnlock()

	if !ok {
		return Tagged{}, fmt.Errorf("%w: %s (viewport %d)", ErrMissingInput, buffer, viewport)
	}
	if e.tagged.Lifecycle.FrameBound() && e.frame != frame {
		return Tagged{}, fmt.Errorf("%w: %s tagged %s for frame %d, requested frame %d",
			ErrTagExpired, buffer, e.tagged.Lifecycle, e.frame, frame)
	}
	return e.tagged, nil
}

// Remove drops every tag of viewport.
func (s *Store) Remove(viewport framedata.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.tags {
		if k.viewport == viewport {
			delete(s.tags, k)
		}
	}
}

// Clear drops all tags.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = make(map[tagKey]tagEntry)
}

// Len returns the number of global tags.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

// FindLocal returns the first tag for buffer among the call-scoped
// inputs, walking each input's chain.
func FindLocal(buffer BufferType, inputs []record.Record) *Tag {
	var found *Tag
	for _, in := range inputs {
		record.Walk(in, func(r record.Record) bool {
			if t, ok := r.(*Tag); ok && t.Type == TagStructType && t.Buffer == buffer {
				found = t
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// GetTagged resolves the resource for buffer as seen by an evaluation of
// frame on viewport.
//
// Call-scoped inputs are searched first and strictly shadow the global
// store, including a local tag with a nil resource, which reads as absent.
// When neither channel has the tag, an optional lookup succeeds with an
// invalid Tagged while a mandatory one fails with ErrMissingInput naming
// the buffer type. store may be nil when only local inputs exist.
//
// No state transition is issued; that is the caller's responsibility.
func GetTagged(store *Store, buffer BufferType, viewport framedata.Viewport, frame framedata.Frame,
	optional bool, inputs ...record.Record) (Tagged, error) {
	if t := FindLocal(buffer, inputs); t != nil {
		if !t.Removes() {
			return snapshot(t, true), nil
		}
		if optional {
			return Tagged{}, nil
		}
		return Tagged{}, fmt.Errorf("%w: %s (viewport %d, removed locally)", ErrMissingInput, buffer, viewport)
	}

	if store != nil {
		tagged, err := store.Lookup(viewport, buffer, frame)
		if err == nil {
			return tagged, nil
		}
		if optional {
			if errors.Is(err, ErrTagExpired) {
				store.logger.Warn("resource: optional tag expired", "buffer", buffer, "err", err)
			}
			return Tagged{}, nil
		}
		return Tagged{}, err
	}

	if optional {
		return Tagged{}, nil
	}
	return Tagged{}, fmt.Errorf("%w: %s (viewport %d)", ErrMissingInput, buffer, viewport)
}
