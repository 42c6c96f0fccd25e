package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framehost/state"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnsupportedCommandList is returned when Record receives a command
	// list the backend cannot encode into.
	ErrUnsupportedCommandList = errors.New("backend: unsupported command list")
)

// Backend records resource state transitions on a host command list.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "hal", "null").
	Name() string

	// Init binds the backend to the host device. Backends that need no
	// device accept a nil provider.
	Init(provider gpucontext.DeviceProvider) error

	// Close releases backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Record encodes barriers for ts into cmd, the command list the host
	// passed to the evaluate call.
	Record(cmd any, ts []state.Transition) error
}
