package backend

import (
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framehost/state"
)

// Backend name constants.
const (
	// BackendNull is the name of the in-memory backend.
	BackendNull = "null"
	// BackendHAL is the name of the gogpu/wgpu HAL backend.
	BackendHAL = "hal"
)

// NullHistory is the number of most recent transitions a NullBackend keeps.
const NullHistory = 64

// NullBackend accepts any command list, counts the transitions it was
// asked to record and keeps the last NullHistory of them. It serves APIs
// that track state implicitly (D3D11) and tests.
type NullBackend struct {
	mu          sync.Mutex
	initialized bool
	recorded    []state.Transition
	total       uint64
}

// init registers the null backend on package import.
func init() {
	Register(BackendNull, func() Backend {
		return &NullBackend{}
	})
}

// NewNullBackend creates a new null backend.
func NewNullBackend() *NullBackend {
	return &NullBackend{}
}

// Name returns the backend identifier.
func (b *NullBackend) Name() string {
	return BackendNull
}

// Init initializes the backend. The provider is not used.
func (b *NullBackend) Init(gpucontext.DeviceProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *NullBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.recorded = nil
	b.total = 0
}

// Record counts ts and appends it to the history, dropping the oldest
// entries beyond NullHistory.
func (b *NullBackend) Record(_ any, ts []state.Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrNotInitialized
	}
	b.total += uint64(len(ts))
	b.recorded = append(b.recorded, ts...)
	if over := len(b.recorded) - NullHistory; over > 0 {
		n := copy(b.recorded, b.recorded[over:])
		clear(b.recorded[n:])
		b.recorded = b.recorded[:n]
	}
	return nil
}

// Recorded returns a copy of the most recent transitions, oldest first.
func (b *NullBackend) Recorded() []state.Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.recorded)
}

// Drain returns the history and empties it. Total is unaffected.
func (b *NullBackend) Drain() []state.Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.recorded
	b.recorded = nil
	return out
}

// Total returns the number of transitions recorded since Init.
func (b *NullBackend) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
