package feature

import (
	"slices"
	"sync"
)

// Factory creates a new plugin instance.
type Factory func() Plugin

// registry holds plugin factories by name.
var (
	registryMu sync.RWMutex
	plugins    = make(map[string]Factory)
)

// Register registers a plugin factory with the given name.
// This is typically called from init() functions in plugin packages.
// If a plugin with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	plugins[name] = factory
}

// Unregister removes a plugin from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(plugins, name)
}

// Available returns the sorted names of registered plugins.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a plugin with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := plugins[name]
	return ok
}

// Get returns a new plugin instance by name.
// Returns nil if the plugin is not registered.
func Get(name string) Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := plugins[name]
	if !ok {
		return nil
	}
	return factory()
}
