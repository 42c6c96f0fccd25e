package feature

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/record"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

var (
	// ErrFeatureMissing is returned when dispatching a feature without
	// registered callbacks.
	ErrFeatureMissing = errors.New("feature: feature missing")

	// ErrIncompleteCallbacks is returned by Register when exactly one of
	// begin and end is nil.
	ErrIncompleteCallbacks = errors.New("feature: begin and end must be registered together")

	// ErrDispatchInFlight is returned, with validation enabled, when a
	// feature is dispatched for a viewport whose previous dispatch has not
	// ended.
	ErrDispatchInFlight = errors.New("feature: dispatch already in flight")

	// ErrNoTracker is returned by Eval.Require when the evaluation has no
	// state tracker.
	ErrNoTracker = errors.New("feature: no state tracker")
)

// EvaluateFunc is a begin or end evaluation callback.
type EvaluateFunc func(ctx context.Context, ev *Eval) error

// Eval carries one evaluate call through begin, backend work and end.
type Eval struct {
	Feature  Feature
	Frame    framedata.Frame
	Viewport framedata.Viewport
	// Cmd is the host command list. It is passed through untouched.
	Cmd any
	// Inputs are call-scoped records, usually local tags. They shadow the
	// global tags for this call only.
	Inputs []record.Record

	tracker *state.Tracker
	pending []state.Transition
}

// NewEval returns an evaluation. tracker may be nil when the plugin does not
// need transitions.
func NewEval(f Feature, frame framedata.Frame, viewport framedata.Viewport, cmd any,
	tracker *state.Tracker, inputs ...record.Record) *Eval {
	return &Eval{
		Feature:  f,
		Frame:    frame,
		Viewport: viewport,
		Cmd:      cmd,
		Inputs:   inputs,
		tracker:  tracker,
	}
}

// Tracker returns the state tracker of the evaluation.
func (ev *Eval) Tracker() *state.Tracker { return ev.tracker }

// Require declares that r must be in state to before backend work runs.
// The tracker learns r's current state from the tag on first sight.
func (ev *Eval) Require(r *resource.Resource, to state.ResourceState) error {
	if ev.tracker == nil {
		return ErrNoTracker
	}
	if _, err := ev.tracker.Observe(r); err != nil {
		return err
	}
	if tr, ok := ev.tracker.Transition(r.Native, to); ok {
		ev.pending = append(ev.pending, tr)
	}
	return nil
}

// Pending returns the transitions declared with Require.
func (ev *Eval) Pending() []state.Transition { return ev.pending }

type callbacks struct {
	begin EvaluateFunc
	end   EvaluateFunc
}

type flightKey struct {
	feature  Feature
	viewport framedata.Viewport
}

// Table maps features to their evaluation callbacks.
//
// Table is safe for concurrent use, but re-registering a feature while it
// is being dispatched is a caller error.
type Table struct {
	mu       sync.RWMutex
	entries  map[Feature]callbacks
	inFlight map[flightKey]struct{}
	opts     options
}

// NewTable creates an empty dispatch table.
func NewTable(opts ...Option) *Table {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Table{
		entries:  make(map[Feature]callbacks),
		inFlight: make(map[flightKey]struct{}),
		opts:     o,
	}
}

// Register sets the callbacks of f, replacing earlier ones. Passing nil for
// both unregisters f.
func (t *Table) Register(f Feature, begin, end EvaluateFunc) error {
	if (begin == nil) != (end == nil) {
		return fmt.Errorf("%w: %s", ErrIncompleteCallbacks, f)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if begin == nil {
		delete(t.entries, f)
		t.opts.logger.Debug("feature: callbacks unregistered", "feature", f)
		return nil
	}
	t.entries[f] = callbacks{begin: begin, end: end}
	t.opts.logger.Debug("feature: callbacks registered", "feature", f)
	return nil
}

// Lookup returns the callbacks registered for f.
func (t *Table) Lookup(f Feature) (begin, end EvaluateFunc, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cb, ok := t.entries[f]
	return cb.begin, cb.end, ok
}

// Registered returns the registered features in ascending order.
func (t *Table) Registered() []Feature {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Feature, 0, len(t.entries))
	for f := range t.entries {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// InFlight reports whether a dispatch of f for viewport has begun and not
// yet ended. It is only tracked with validation enabled.
func (t *Table) InFlight(f Feature, viewport framedata.Viewport) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.inFlight[flightKey{feature: f, viewport: viewport}]
	return ok
}

// Active reports whether any dispatch of f is in flight. It is only
// tracked with validation enabled.
func (t *Table) Active(f Feature) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k := range t.inFlight {
		if k.feature == f {
			return true
		}
	}
	return false
}

// Dispatch evaluates ev.Feature: begin, then work, then end. A failing
// begin skips work and end. Once begin has succeeded end always runs, and
// the errors of work and end are joined.
func (t *Table) Dispatch(ctx context.Context, ev *Eval, work EvaluateFunc) (err error) {
	defer func() {
		if t.opts.observer != nil {
			t.opts.observer(ev.Feature, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	begin, end, ok := t.Lookup(ev.Feature)
	if !ok {
		t.opts.logger.Error("feature: dispatch of unregistered feature",
			"feature", ev.Feature, "frame", ev.Frame, "viewport", ev.Viewport)
		return fmt.Errorf("%w: %s", ErrFeatureMissing, ev.Feature)
	}

	if t.opts.validation {
		key := flightKey{feature: ev.Feature, viewport: ev.Viewport}
		t.mu.Lock()
		if _, busy := t.inFlight[key]; busy {
			t.mu.Unlock()
			t.opts.logger.Error("feature: overlapping dispatch",
				"feature", ev.Feature, "viewport", ev.Viewport)
			return fmt.Errorf("%w: %s viewport %d", ErrDispatchInFlight, ev.Feature, ev.Viewport)
		}
		t.inFlight[key] = struct{}{}
		t.mu.Unlock()
		defer func() {
			t.mu.Lock()
			delete(t.inFlight, key)
			t.mu.Unlock()
		}()
	}

	if err := begin(ctx, ev); err != nil {
		return fmt.Errorf("feature: begin %s: %w", ev.Feature, err)
	}

	var workErr, endErr error
	if work != nil {
		workErr = work(ctx, ev)
	}
	if err := end(ctx, ev); err != nil {
		endErr = fmt.Errorf("feature: end %s: %w", ev.Feature, err)
	}
	return errors.Join(workErr, endErr)
}
