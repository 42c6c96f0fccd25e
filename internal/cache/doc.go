// Package cache provides a sharded, concurrent map used for per-resource
// bookkeeping.
//
// Unlike an LRU cache, Map never evicts: entries describe live GPU
// resources and disappear only when the owner deletes them or clears the
// map.
//
//	m := cache.New[uintptr, uint32](cache.HandleHasher)
//	state, _ := m.GetOrCreate(handle, query)
//	m.Update(handle, func(uint32, bool) uint32 { return next })
//
// # Thread Safety
//
// Map is safe for concurrent use. It must not be copied after creation.
package cache
