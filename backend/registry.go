package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/wgmem/gpucore"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default. Software is opened by name only.
	priority = []string{Native}
)

// Register registers a backend factory with the given name.
// It is typically called from an init function in the backend package.
// A factory registered under an existing name replaces it.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string) (gpucore.Device, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := f()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	Logger().Info("backend: device opened", "backend", name, "device", dev.Name())
	return dev, nil
}

// Default opens the first device in priority order.
// When none opens, the returned error wraps gpucore.ErrNoDevice and every
// backend's failure.
func Default() (gpucore.Device, error) {
	registryMu.RLock()
	names := make([]string, 0, len(priority))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	registryMu.RUnlock()

	errs := []error{gpucore.ErrNoDevice}
	for _, name := range names {
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		Logger().Debug("backend: candidate failed", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
