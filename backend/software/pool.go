package software

import "sync"

// runAll executes work on up to workers goroutines and returns when every
// item has finished. Items are dealt round-robin into per-worker queues. A
// worker drains its own queue first and then steals from the others, so a
// slow threadgroup does not hold back the items queued behind it.
func runAll(workers int, work []func()) {
	if len(work) == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, len(work))

	queues := make([]chan func(), workers)
	for i := range queues {
		queues[i] = make(chan func(), (len(work)+workers-1)/workers)
	}
	for i, fn := range work {
		queues[i%workers] <- fn
	}
	for _, q := range queues {
		close(q)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for id := range workers {
		go func() {
			defer wg.Done()
			for fn := range queues[id] {
				fn()
			}
			for fn := steal(queues, id); fn != nil; fn = steal(queues, id) {
				fn()
			}
		}()
	}
	wg.Wait()
}

// steal takes an item from another worker's queue, or returns nil when
// every queue is empty.
func steal(queues []chan func(), self int) func() {
	for i, q := range queues {
		if i == self {
			continue
		}
		if fn, ok := <-q; ok {
			return fn
		}
	}
	return nil
}
