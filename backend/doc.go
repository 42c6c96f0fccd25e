// Package backend provides the graphics backends that record resource
// state transitions on behalf of feature plugins.
//
// Plugins compute the transitions they need with a state.Tracker. A
// Backend turns them into commands on the host's command list.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The null backend is registered on import of this package; the HAL
// backend on import of backend/hal:
//
//	import _ "github.com/gogpu/framehost/backend/hal"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Get("hal")
//	if err := b.Init(provider); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	err := b.Record(encoder, transitions)
//
// # Available Backends
//
//   - "hal": barriers through gogpu/wgpu/hal command encoders
//   - "null": records transitions in memory (implicit-state APIs, tests)
package backend
