// Package params provides the string-keyed parameter store through which
// independently loaded modules discover each other's function tables and
// shared state.
//
// Keys follow the "<namespace>.param.<name>" convention (see [Key] and
// [FeatureKey]). Values are held by reference; the store never copies or
// frees what it is given.
package params

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

var (
	// ErrNotFound is returned when a key has not been set.
	ErrNotFound = errors.New("params: key not found")

	// ErrTypeMismatch is returned when a value exists but has another type.
	ErrTypeMismatch = errors.New("params: value has unexpected type")
)

// Namespace is the namespace used for keys published by the runtime.
const Namespace = "sl"

// Keys published by the runtime for every loaded plugin.
var (
	KeyGetTag          = Key(Namespace, "common.getTag")
	KeyGetConstants    = Key(Namespace, "common.getConstants")
	KeyStateTracker    = Key(Namespace, "common.newStateTracker")
	KeyDevice          = Key(Namespace, "common.device")
	KeyQueue           = Key(Namespace, "common.queue")
	KeySurfaceFormat   = Key(Namespace, "common.surfaceFormat")
	KeyBackend         = Key(Namespace, "common.backend")
	KeyFramesInFlight  = Key(Namespace, "common.framesInFlight")
	KeyStrictFrameData = Key(Namespace, "common.strictFrameData")
	KeyHALDevice       = Key(Namespace, "common.halDevice")
)

// Key builds "<namespace>.param.<name>".
func Key(namespace, name string) string {
	return namespace + ".param." + name
}

// FeatureKey builds the key under which the feature with the given numeric
// id publishes name. The key is derived only from the id, so modules built
// independently agree on it.
func FeatureKey(featureID uint32, name string) string {
	return Key(Namespace, strconv.FormatUint(uint64(featureID), 10)+"."+name)
}

// Store is a thread-safe map from key to value.
//
// The zero value is ready to use.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value. Setting a nil
// value is equivalent to Delete.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.values, key)
		return
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Get returns the value stored under key. The second result is false when
// the key is missing; no default is ever fabricated.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Delete removes key. It reports whether the key was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	return true
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Require reports the mandatory keys that are not set, joined into one
// ErrNotFound error. It returns nil when all are present.
func (s *Store) Require(keys ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []error
	for _, k := range keys {
		if _, ok := s.values[k]; !ok {
			missing = append(missing, fmt.Errorf("%w: %q", ErrNotFound, k))
		}
	}
	return errors.Join(missing...)
}

// Lookup returns the value under key converted to T.
// It fails with ErrNotFound or ErrTypeMismatch, both wrapped with the key.
func Lookup[T any](s *Store, key string) (T, error) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, nil
}

// Optional is like Lookup but treats a missing key as absent rather than
// an error. A present value of the wrong type is still an error.
func Optional[T any](s *Store, key string) (T, bool, error) {
	t, err := Lookup[T](s, key)
	switch {
	case err == nil:
		return t, true, nil
	case errors.Is(err, ErrNotFound):
		return t, false, nil
	default:
		return t, false, err
	}
}
