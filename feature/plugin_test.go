package feature

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gogpu/framehost/framedata"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/record"
)

// mockHost implements Host for testing.
type mockHost struct {
	store *params.Store
}

func (h *mockHost) Params() *params.Store { return h.store }
func (h *mockHost) Logger() *slog.Logger  { return slog.New(slog.DiscardHandler) }

// mockPlugin is a configurable Plugin.
type mockPlugin struct {
	manifest  Manifest
	exports   Exports
	startErr  error
	started   int
	shutdowns int
	sawStore  *params.Store
}

func (p *mockPlugin) Manifest() Manifest { return p.manifest }

func (p *mockPlugin) Startup(host Host) (Exports, error) {
	p.started++
	p.sawStore = host.Params()
	return p.exports, p.startErr
}

func (p *mockPlugin) Shutdown() { p.shutdowns++ }

func fullExports() Exports {
	return Exports{
		ExportBeginEvaluation: EvaluateFunc(noop),
		ExportEndEvaluation:   EvaluateFunc(noop),
		ExportSetOptions: SetOptionsFunc(func(framedata.Frame, framedata.Viewport, record.Record) error {
			return nil
		}),
		ExportGetSharedData: SharedDataFunc(func(record.Record, record.Record) SharedDataStatus {
			return SharedDataOK
		}),
	}
}

func TestBind(t *testing.T) {
	e := fullExports()

	if _, err := Bind[EvaluateFunc](e, ExportBeginEvaluation); err != nil {
		t.Errorf("Bind(begin) error = %v", err)
	}
	if _, err := Bind[EvaluateFunc](e, "missing"); !errors.Is(err, ErrIncompatible) {
		t.Errorf("Bind(missing) error = %v", err)
	}
	if _, err := Bind[ResourcesFunc](e, ExportBeginEvaluation); !errors.Is(err, ErrIncompatible) {
		t.Errorf("Bind(wrong type) error = %v", err)
	}
	if _, ok, err := BindOptional[ResourcesFunc](e, ExportFreeResources); ok || err != nil {
		t.Errorf("BindOptional(absent) = %v, %v", ok, err)
	}
	if got := e.Names(); !slices.IsSorted(got) || len(got) != 4 {
		t.Errorf("Names() = %v", got)
	}
}

func TestBindFunctionsRequiresBeginEnd(t *testing.T) {
	e := fullExports()
	delete(e, ExportEndEvaluation)
	e[ExportFreeResources] = "not a function"

	_, err := BindFunctions(e)
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("BindFunctions error = %v", err)
	}
	msg := err.Error()
	for _, name := range []string{ExportEndEvaluation, ExportFreeResources} {
		if !strings.Contains(msg, name) {
			t.Errorf("error %q does not mention %q", msg, name)
		}
	}
}

func TestLoaderLoad(t *testing.T) {
	host := &mockHost{store: params.New()}
	host.store.Set(params.KeyGetTag, "accessor")
	p := &mockPlugin{
		manifest: Manifest{Name: "sharpen", Feature: FeatureSharpen, Requires: []string{params.KeyGetTag}},
		exports:  fullExports(),
	}

	m, err := NewLoader(host).Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Functions.Begin == nil || m.Functions.End == nil || m.Functions.SetOptions == nil {
		t.Error("required functions not bound")
	}
	if m.Functions.AllocateResources != nil {
		t.Error("absent optional function bound")
	}
	if p.sawStore != host.store {
		t.Error("plugin did not receive the host store")
	}
	if _, ok := host.store.Get(SharedDataKey(FeatureSharpen)); !ok {
		t.Error("shared data not published")
	}
	if _, ok := m.Function(ExportSetOptions); !ok {
		t.Error("Function(setOptions) not found")
	}

	m.Unload()
	m.Unload()
	if p.shutdowns != 1 {
		t.Errorf("Shutdown called %d times, want 1", p.shutdowns)
	}
	if _, ok := host.store.Get(SharedDataKey(FeatureSharpen)); ok {
		t.Error("shared data still published after Unload")
	}
}

func TestLoaderMissingDependency(t *testing.T) {
	host := &mockHost{store: params.New()}
	p := &mockPlugin{
		manifest: Manifest{Name: "sharpen", Requires: []string{params.KeyGetConstants}},
		exports:  fullExports(),
	}
	_, err := NewLoader(host).Load(p)
	if !errors.Is(err, params.ErrNotFound) {
		t.Errorf("error = %v, want params.ErrNotFound", err)
	}
	if p.started != 0 {
		t.Error("plugin started despite missing dependency")
	}
}

func TestLoaderIncompatible(t *testing.T) {
	host := &mockHost{store: params.New()}
	p := &mockPlugin{
		manifest: Manifest{Name: "broken", Feature: FeatureDenoiser},
		exports:  Exports{ExportBeginEvaluation: EvaluateFunc(noop)},
	}
	_, err := NewLoader(host).Load(p)
	if !errors.Is(err, ErrIncompatible) {
		t.Errorf("error = %v, want ErrIncompatible", err)
	}
	if p.shutdowns != 1 {
		t.Errorf("rejected plugin shut down %d times, want 1", p.shutdowns)
	}
}

func TestLoaderStartupAndManifestErrors(t *testing.T) {
	host := &mockHost{store: params.New()}
	boom := errors.New("no device")

	_, err := NewLoader(host).Load(&mockPlugin{manifest: Manifest{Name: "x"}, startErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("startup error = %v", err)
	}
	_, err = NewLoader(host).Load(&mockPlugin{exports: fullExports()})
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("empty manifest error = %v", err)
	}
}

func TestPluginRegistry(t *testing.T) {
	Register("test-plugin", func() Plugin { return &mockPlugin{manifest: Manifest{Name: "test-plugin"}} })
	defer Unregister("test-plugin")

	if !IsRegistered("test-plugin") || !slices.Contains(Available(), "test-plugin") {
		t.Fatal("test-plugin not registered")
	}
	a, b := Get("test-plugin"), Get("test-plugin")
	if a == nil || a == b {
		t.Error("Get should return a fresh instance per call")
	}
	if Get("missing") != nil {
		t.Error("Get(missing) != nil")
	}
}

var (
	testRequestType  = uuid.MustParse("5a1c3a51-7c0e-4c5e-9d25-7b6f0c1e2d01")
	testRequesterTag = uuid.MustParse("5a1c3a51-7c0e-4c5e-9d25-7b6f0c1e2d02")
)

// sharedRequest grew Count in version 2.
type sharedRequest struct {
	record.Header
	Handle uintptr
	Count  uint32 // version 2
}

func (sharedRequest) StructType() uuid.UUID { return testRequestType }

func TestSharedDataVersionedFill(t *testing.T) {
	store := params.New()
	PublishSharedData(store, FeatureFrameGeneration, func(requested, requester record.Record) SharedDataStatus {
		if st := CheckSharedDataRequest(requested, requester, testRequestType); st != SharedDataOK {
			return st
		}
		req := requested.(*sharedRequest)
		req.Handle = 0xABC
		if record.Writable(req, 2) {
			req.Count = 3
		}
		return SharedDataOK
	})

	requester := &record.Header{Type: testRequesterTag, Version: 1}

	v1 := &sharedRequest{Header: record.NewHeader(testRequestType, 1), Count: 99}
	st, err := GetSharedData(store, FeatureFrameGeneration, v1, requester)
	if err != nil || st != SharedDataOK {
		t.Fatalf("GetSharedData(v1) = %v, %v", st, err)
	}
	if v1.Handle != 0xABC || v1.Count != 99 || v1.Version != 1 {
		t.Errorf("v1 request = %+v; v2 field must stay untouched", v1)
	}

	v2 := &sharedRequest{Header: record.NewHeader(testRequestType, 2)}
	GetSharedData(store, FeatureFrameGeneration, v2, requester)
	if v2.Count != 3 {
		t.Errorf("v2 Count = %d, want 3", v2.Count)
	}

	wrong := &record.Header{Type: testRequesterTag, Version: 1}
	if st, _ := GetSharedData(store, FeatureFrameGeneration, wrong, requester); st != SharedDataInvalidRequestedData {
		t.Errorf("wrong type status = %v", st)
	}
	var nilRequester *sharedRequest
	if st, _ := GetSharedData(store, FeatureFrameGeneration, v2, nilRequester); st != SharedDataInvalidRequesterInfo {
		t.Errorf("typed nil requester status = %v", st)
	}
}

func TestGetSharedDataNotLoaded(t *testing.T) {
	_, err := GetSharedData(params.New(), FeatureLatency, nil, nil)
	if !errors.Is(err, params.ErrNotFound) {
		t.Errorf("error = %v, want params.ErrNotFound", err)
	}
	if SharedDataInvalidRequesterInfo.String() != "invalid_requester_info" || SharedDataStatus(9).String() != "unknown" {
		t.Error("SharedDataStatus names")
	}
	if SharedDataKey(FeatureFrameGeneration) != "sl.param.1000.getSharedData" {
		t.Errorf("SharedDataKey = %q", SharedDataKey(FeatureFrameGeneration))
	}
}
