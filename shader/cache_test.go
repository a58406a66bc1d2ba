package shader

import (
	"errors"
	"fmt"
	"testing"
)

func TestCacheReusesLibrary(t *testing.T) {
	c := NewCache(0, DefaultOptions())
	src := ForVariant(VariantLocal)
	first, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	second, err := c.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Compile() returned a different library")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits %d misses, want 1 and 1", hits, misses)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := NewCache(0, DefaultOptions())
	bad := Custom("bad", "fn (")
	for i := 0; i < 2; i++ {
		var ce *CompileError
		if _, err := c.Compile(bad); !errors.As(err, &ce) {
			t.Fatalf("Compile() error = %v, want *CompileError", err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(4, DefaultOptions())
	src := func(i int) Source {
		return Custom(fmt.Sprintf("k%d", i), fmt.Sprintf("@compute @workgroup_size(%d)\nfn %s() {}\n", i+1, EntryPoint))
	}
	for i := 0; i < 4; i++ {
		if _, err := c.Compile(src(i)); err != nil {
			t.Fatal(err)
		}
	}
	// Touch k0 so k1 is the oldest.
	if _, err := c.Compile(src(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile(src(4)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	_, missesBefore := c.Stats()
	if _, err := c.Compile(src(0)); err != nil {
		t.Fatal(err)
	}
	if _, misses := c.Stats(); misses != missesBefore {
		t.Error("recently used entry was evicted")
	}
}
