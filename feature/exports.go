package feature

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/record"
)

// ErrIncompatible is returned when a plugin's exports do not match what
// the runtime needs.
var ErrIncompatible = errors.New("feature: incompatible plugin")

// Export names.
const (
	ExportBeginEvaluation   = "beginEvaluation"
	ExportEndEvaluation     = "endEvaluation"
	ExportSetOptions        = "setOptions"
	ExportGetSharedData     = "getSharedData"
	ExportAllocateResources = "allocateResources"
	ExportFreeResources     = "freeResources"
)

// SetOptionsFunc receives per-viewport feature options for a frame. opts is
// a record chain the plugin copies before returning.
type SetOptionsFunc func(frame framedata.Frame, viewport framedata.Viewport, opts record.Record) error

// ResourcesFunc allocates or frees the per-viewport resources of a feature.
type ResourcesFunc func(viewport framedata.Viewport) error

// Exports maps export names to functions. It is built once when a plugin
// starts. Values must have exactly the named function type Bind expects,
// e.g. EvaluateFunc(begin) rather than a bare func literal.
type Exports map[string]any

// Names returns the export names in sorted order.
func (e Exports) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Bind returns the export name as F. A missing export or one of another
// type is an ErrIncompatible error.
func Bind[F any](e Exports, name string) (F, error) {
	var zero F
	v, ok := e[name]
	if !ok || v == nil {
		return zero, fmt.Errorf("%w: missing export %q", ErrIncompatible, name)
	}
	f, ok := v.(F)
	if !ok {
		return zero, fmt.Errorf("%w: export %q is %T, want %T", ErrIncompatible, name, v, zero)
	}
	return f, nil
}

// BindOptional is like Bind but a missing export is not an error.
func BindOptional[F any](e Exports, name string) (F, bool, error) {
	if v, ok := e[name]; !ok || v == nil {
		var zero F
		return zero, false, nil
	}
	f, err := Bind[F](e, name)
	return f, err == nil, err
}

// Functions are the typed entry points of a loaded plugin. Begin and End
// are always set; the rest are nil when the plugin does not export them.
type Functions struct {
	Begin             EvaluateFunc
	End               EvaluateFunc
	SetOptions        SetOptionsFunc
	GetSharedData     SharedDataFunc
	AllocateResources ResourcesFunc
	FreeResources     ResourcesFunc
}

// BindFunctions validates e and binds it to Functions.
func BindFunctions(e Exports) (Functions, error) {
	var (
		fns  Functions
		errs []error
	)
	bind := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	fns.Begin, err = Bind[EvaluateFunc](e, ExportBeginEvaluation)
	bind(err)
	fns.End, err = Bind[EvaluateFunc](e, ExportEndEvaluation)
	bind(err)
	fns.SetOptions, _, err = BindOptional[SetOptionsFunc](e, ExportSetOptions)
	bind(err)
	fns.GetSharedData, _, err = BindOptional[SharedDataFunc](e, ExportGetSharedData)
	bind(err)
	fns.AllocateResources, _, err = BindOptional[ResourcesFunc](e, ExportAllocateResources)
	bind(err)
	fns.FreeResources, _, err = BindOptional[ResourcesFunc](e, ExportFreeResources)
	bind(err)

	if len(errs) > 0 {
		return Functions{}, errors.Join(errs...)
	}
	return fns, nil
}
