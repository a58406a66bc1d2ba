package software

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgmem/backend"
)

// errBarrierBroken unwinds threads blocked on a barrier after another
// thread of the group faulted.
var errBarrierBroken = errors.New("software: barrier broken")

// barrier is a reusable threadgroup barrier. Threads that return from the
// kernel leave the barrier so the remaining threads are not stranded.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	live    int
	waiting int
	gen     uint64
	broken  bool
}

func newBarrier(n int) *barrier {
	b := &barrier{live: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) release() {
	b.waiting = 0
	b.gen++
	b.cond.Broadcast()
}

func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken {
		panic(errBarrierBroken)
	}
	gen := b.gen
	b.waiting++
	if b.waiting == b.live {
		b.release()
		return
	}
	for gen == b.gen && !b.broken {
		b.cond.Wait()
	}
	if b.broken {
		panic(errBarrierBroken)
	}
}

func (b *barrier) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live--
	if b.waiting > 0 && b.waiting == b.live {
		b.release()
	}
}

func (b *barrier) abort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broken = true
	b.cond.Broadcast()
}

// threadgroup is the shared state of one executing group.
type threadgroup struct {
	id      [3]uint32
	buffers map[uint32]*Memory
	scratch map[uint64]*Memory
	barrier *barrier

	mu    sync.Mutex
	fault *Fault
}

func (g *threadgroup) fail(thread uint32, r any) {
	f, ok := r.(*Fault)
	if !ok {
		f = &Fault{Reason: fmt.Sprint(r)}
	}
	f.Group = g.id
	f.Thread = thread

	g.mu.Lock()
	if g.fault == nil {
		g.fault = f
	}
	g.mu.Unlock()
	g.barrier.abort()
}

func (g *threadgroup) run(k Kernel, t *Thread, wg *sync.WaitGroup) {
	defer wg.Done()
	defer g.barrier.leave()
	defer func() {
		if r := recover(); r != nil {
			if r == errBarrierBroken {
				return
			}
			g.fail(t.LocalIndex, r)
		}
	}()
	k(t)
}

// execute runs every threadgroup of disp, at most parallelism groups at a
// time, and returns the first fault.
func (d *Device) execute(disp *dispatch) error {
	grid, group := disp.grid, disp.group
	threads := int(group.Count())
	if threads == 0 || grid.Count() == 0 {
		return nil
	}
	backend.Logger().Debug("software: executing",
		"function", disp.pipeline.fn.Name(),
		"grid", grid.String(),
		"group", group.String())

	var (
		mu       sync.Mutex
		firstErr error
		work     = make([]func(), 0, grid.Count())
	)
	for z := uint32(0); z < grid.Depth; z++ {
		for y := uint32(0); y < grid.Height; y++ {
			for x := uint32(0); x < grid.Width; x++ {
				id := [3]uint32{x, y, z}
				work = append(work, func() {
					if f := d.runGroup(disp, id, threads); f != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = f
						}
						mu.Unlock()
					}
				})
			}
		}
	}
	runAll(d.opts.parallelism, work)
	return firstErr
}

func (d *Device) runGroup(disp *dispatch, id [3]uint32, threads int) *Fault {
	g := &threadgroup{
		id:      id,
		buffers: disp.buffers,
		scratch: make(map[uint64]*Memory, len(disp.scratch)),
		barrier: newBarrier(threads),
	}
	for index, length := range disp.scratch {
		g.scratch[index] = newMemory(fmt.Sprintf("threadgroup[%d]", index), int(length))
	}

	size := disp.group
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		li := uint32(i)
		t := &Thread{
			LocalIndex: li,
			LocalID: [3]uint32{
				li % size.Width,
				(li / size.Width) % size.Height,
				li / (size.Width * size.Height),
			},
			GroupID:    id,
			GroupCount: disp.grid.Array(),
			group:      g,
		}
		go g.run(disp.pipeline.kernel, t, &wg)
	}
	wg.Wait()
	return g.fault
}
