package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/wgmem/gpucore"
)

type fakeDevice struct {
	gpucore.Device
	name string
}

func (d fakeDevice) Name() string { return d.name }

// register installs f under name for the duration of the test.
func register(t *testing.T, name string, f Factory) {
	t.Helper()
	Register(name, f)
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistryRegisterAndOpen(t *testing.T) {
	register(t, "test-open", func() (gpucore.Device, error) {
		return fakeDevice{name: "fake"}, nil
	})
	if !IsRegistered("test-open") {
		t.Fatal("test-open not registered")
	}
	dev, err := Open("test-open")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if dev.Name() != "fake" {
		t.Errorf("Open().Name() = %q, want %q", dev.Name(), "fake")
	}
}

func TestRegistryOpenMissing(t *testing.T) {
	if _, err := Open("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryOpenFactoryError(t *testing.T) {
	register(t, "test-absent", func() (gpucore.Device, error) {
		return nil, gpucore.ErrNoDevice
	})
	if _, err := Open("test-absent"); !errors.Is(err, gpucore.ErrNoDevice) {
		t.Errorf("Open() error = %v, want ErrNoDevice", err)
	}
}

func TestRegistryAvailable(t *testing.T) {
	register(t, "test-b", func() (gpucore.Device, error) { return nil, nil })
	register(t, "test-a", func() (gpucore.Device, error) { return nil, nil })
	names := Available()
	if !slices.IsSorted(names) {
		t.Errorf("Available() = %v, not sorted", names)
	}
	for _, want := range []string{"test-a", "test-b"} {
		if !slices.Contains(names, want) {
			t.Errorf("Available() = %v, missing %q", names, want)
		}
	}

	Unregister("test-a")
	if IsRegistered("test-a") {
		t.Error("test-a still registered after Unregister")
	}
}

func TestRegistryDefaultWithoutNative(t *testing.T) {
	Unregister(Native)
	if _, err := Default(); !errors.Is(err, gpucore.ErrNoDevice) {
		t.Errorf("Default() error = %v, want ErrNoDevice", err)
	}
}

func TestRegistryDefaultSkipsSoftware(t *testing.T) {
	opened := false
	register(t, Software, func() (gpucore.Device, error) {
		opened = true
		return fakeDevice{name: Software}, nil
	})
	register(t, Native, func() (gpucore.Device, error) {
		return nil, errors.New("no adapter")
	})
	_, err := Default()
	if !errors.Is(err, gpucore.ErrNoDevice) {
		t.Errorf("Default() error = %v, want ErrNoDevice", err)
	}
	if opened {
		t.Error("Default() opened the software backend")
	}
}

func TestRegistryDefaultOpensNative(t *testing.T) {
	register(t, Native, func() (gpucore.Device, error) {
		return fakeDevice{name: "gpu"}, nil
	})
	dev, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if dev.Name() != "gpu" {
		t.Errorf("Default().Name() = %q, want %q", dev.Name(), "gpu")
	}
}
