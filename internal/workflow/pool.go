package workflow

import (
	"context"
	"sync"
)

// slotPool bounds concurrent jobs. Each running job holds one numbered slot,
// which is stamped into its context as the worker id.
type slotPool struct {
	slots chan int
	jobs  sync.WaitGroup
}

func newSlotPool(workers int) *slotPool {
	p := &slotPool{slots: make(chan int, workers)}
	for i := range workers {
		p.slots <- i
	}
	return p
}

func (p *slotPool) free() int {
	return len(p.slots)
}

// acquire takes a free slot, waiting for one if necessary. A free slot is
// preferred over a done ctx; ok is false only when none was free.
func (p *slotPool) acquire(ctx context.Context) (slot int, ok bool) {
	select {
	case slot = <-p.slots:
		return slot, true
	default:
	}
	select {
	case slot = <-p.slots:
		return slot, true
	case <-ctx.Done():
		return 0, false
	}
}

// run executes fn in its own goroutine and frees slot when fn returns.
func (p *slotPool) run(slot int, fn func(slot int)) {
	p.jobs.Add(1)
	go func() {
		defer p.jobs.Done()
		defer func() { p.slots <- slot }()
		fn(slot)
	}()
}

func (p *slotPool) wait() {
	p.jobs.Wait()
}
