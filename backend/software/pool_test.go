package software

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAllExecutesEveryItem(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"no items", 4, 0},
		{"single worker", 1, 10},
		{"more workers than items", 8, 3},
		{"uneven split", 3, 10},
		{"non-positive workers", 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var count atomic.Int32
			work := make([]func(), tt.items)
			for i := range work {
				work[i] = func() { count.Add(1) }
			}
			runAll(tt.workers, work)
			if got := int(count.Load()); got != tt.items {
				t.Errorf("executed %d items, want %d", got, tt.items)
			}
		})
	}
}

func TestRunAllStealsFromSlowWorker(t *testing.T) {
	// Worker 0 owns items 0 and 2. Item 0 blocks until item 2 has run,
	// which only happens if another worker steals it.
	stolen := make(chan struct{})
	work := []func(){
		func() {
			select {
			case <-stolen:
			case <-time.After(5 * time.Second):
				t.Error("item 2 was not stolen")
			}
		},
		func() {},
		func() { close(stolen) },
	}
	runAll(2, work)
}
