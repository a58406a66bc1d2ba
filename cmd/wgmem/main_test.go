package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/backend/software"
	"github.com/gogpu/wgmem/gpucore"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestRunSoftware(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr, env(map[string]string{"WGMEM_BACKEND": backend.Software}))
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if got := stdout.String(); got != "Output: 960\n" {
		t.Errorf("stdout = %q, want %q", got, "Output: 960\n")
	}
}

func TestRunDebugLogging(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr, env(map[string]string{
		"WGMEM_BACKEND": backend.Software,
		"WGMEM_DEBUG":   "1",
	}))
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "960 threads in 10 groups") {
		t.Errorf("debug summary missing from stderr: %s", stderr.String())
	}
}

func TestPrinterLanguage(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"default", nil, "16,384"},
		{"german", map[string]string{"WGMEM_LANG": "de"}, "16.384"},
		{"lang fallback", map[string]string{"LANG": "de"}, "16.384"},
		{"override", map[string]string{"WGMEM_LANG": "en", "LANG": "de"}, "16,384"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := printer(env(tt.vars)).Sprintf("%d", 16384); got != tt.want {
				t.Errorf("Sprintf(16384) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunNoDevice(t *testing.T) {
	const name = "cmd-absent"
	backend.Register(name, func() (gpucore.Device, error) {
		return software.New(software.WithoutDevice())
	})
	t.Cleanup(func() { backend.Unregister(name) })

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), &stdout, &stderr, env(map[string]string{"WGMEM_BACKEND": name}))
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.HasPrefix(stderr.String(), "wgmem: device: ") {
		t.Errorf("stderr = %q, want prefix %q", stderr.String(), "wgmem: device: ")
	}
}
