package state

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/framehost/internal/cache"
	"github.com/gogpu/framehost/resource"
)

var (
	// ErrNilResource is returned for a resource without a native handle.
	ErrNilResource = errors.New("state: nil resource")

	// ErrUnknownState is returned when no hint is given, nothing is
	// memoized and the tracker has no Querier.
	ErrUnknownState = errors.New("state: resource state unknown")
)

// NoHint tells CacheState the caller has no native state for the resource.
const NoHint = ^uint32(0)

// Querier reads the current native state of a resource directly from the
// graphics backend.
type Querier interface {
	QueryState(res resource.Native) (uint32, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(res resource.Native) (uint32, error)

// QueryState implements Querier.
func (f QuerierFunc) QueryState(res resource.Native) (uint32, error) { return f(res) }

// Transition is a state change of one resource.
type Transition struct {
	Resource resource.Native
	From     ResourceState
	To       ResourceState
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithQuerier sets the Querier consulted when CacheState has no hint.
func WithQuerier(q Querier) Option {
	return func(t *Tracker) { t.querier = q }
}

// WithLogger sets the tracker logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tracker memoizes the last known state of each native resource for one
// session of a feature instance. Entries are keyed by native handle, so a
// recreated resource with a new handle starts untracked.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	api     resource.API
	states  *cache.Map[uintptr, ResourceState]
	querier Querier
	logger  *slog.Logger
}

// NewTracker creates an empty tracker for api.
func NewTracker(api resource.API, opts ...Option) *Tracker {
	t := &Tracker{
		api:    api,
		states: cache.New[uintptr, ResourceState](cache.HandleHasher),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// API returns the API whose native states the tracker translates.
func (t *Tracker) API() resource.API { return t.api }

func handleOf(res resource.Native) (uintptr, error) {
	if res == nil {
		return 0, ErrNilResource
	}
	h := res.NativeHandle()
	if h == 0 {
		return 0, ErrNilResource
	}
	return h, nil
}

// CacheState returns the memoized state of res. On first observation the
// native hint is translated and memoized; with NoHint the Querier is asked
// instead. Later calls return the memoized state and ignore the hint.
func (t *Tracker) CacheState(res resource.Native, hint uint32) (ResourceState, error) {
	h, err := handleOf(res)
	if err != nil {
		return Undefined, err
	}
	if s, ok := t.states.Get(h); ok {
		return s, nil
	}

	native := hint
	if hint == NoHint {
		switch {
		case t.api.ImplicitState():
			native = 0
		case t.querier != nil:
			native, err = t.querier.QueryState(res)
			if err != nil {
				return Undefined, fmt.Errorf("state: query %#x: %w", h, err)
			}
		default:
			return Undefined, fmt.Errorf("%w: %#x", ErrUnknownState, h)
		}
	}

	s, _ := t.states.GetOrCreate(h, func() ResourceState {
		return FromNative(t.api, native)
	})
	t.logger.Debug("state: cached", "handle", h, "state", s)
	return s, nil
}

// Observe caches the state of a tagged resource using the native state the
// host supplied with the tag.
func (t *Tracker) Observe(r *resource.Resource) (ResourceState, error) {
	if !r.IsValid() {
		return Undefined, ErrNilResource
	}
	return t.CacheState(r.Native, r.State)
}

// State returns the memoized state of res without translating or querying.
func (t *Tracker) State(res resource.Native) (ResourceState, bool) {
	h, err := handleOf(res)
	if err != nil {
		return Undefined, false
	}
	return t.states.Get(h)
}

// Transition records that res moves to state to and returns the barrier
// required. ok is false when no barrier is needed: the resource is already
// in to, or the API tracks state implicitly. An untracked resource is
// assumed Undefined.
func (t *Tracker) Transition(res resource.Native, to ResourceState) (tr Transition, ok bool) {
	h, err := handleOf(res)
	if err != nil {
		return Transition{}, false
	}
	var from ResourceState
	t.states.Update(h, func(old ResourceState, _ bool) ResourceState {
		from = old
		return to
	})
	if from == to || t.api.ImplicitState() {
		return Transition{}, false
	}
	t.logger.Debug("state: transition", "handle", h, "from", from, "to", to)
	return Transition{Resource: res, From: from, To: to}, true
}

// Restore returns every resource in ts to its From state and returns the
// barriers doing so, in reverse order.
func (t *Tracker) Restore(ts []Transition) []Transition {
	out := make([]Transition, 0, len(ts))
	for i := len(ts) - 1; i >= 0; i-- {
		if tr, ok := t.Transition(ts[i].Resource, ts[i].From); ok {
			out = append(out, tr)
		}
	}
	return out
}

// Forget drops the memoized state of res.
func (t *Tracker) Forget(res resource.Native) {
	if h, err := handleOf(res); err == nil {
		t.states.Delete(h)
	}
}

// Invalidate drops every memoized state. Call it when resources were
// recreated, for example after a resize.
func (t *Tracker) Invalidate() {
	n := t.states.Len()
	t.states.Clear()
	t.logger.Debug("state: invalidated", "entries", n)
}

// Len returns the number of tracked resources.
func (t *Tracker) Len() int { return t.states.Len() }

// Stats returns memoization hit statistics.
func (t *Tracker) Stats() cache.Stats { return t.states.Stats() }
