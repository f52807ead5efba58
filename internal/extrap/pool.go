package extrap

import "sync"

// pool is a fixed set of worker goroutines reused for every step of one
// integration run. run blocks until all submitted functions completed, the
// per-step join barrier. close releases the workers; the driver defers it
// so the pool is torn down on every exit path, including fatal errors.
type pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = 1
	}
	p := &pool{tasks: make(chan func())}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for fn := range p.tasks {
				fn()
			}
		}()
	}
	return p
}

func (p *pool) run(fns []func()) {
	var barrier sync.WaitGroup
	barrier.Add(len(fns))
	for _, fn := range fns {
		fn := fn
		p.tasks <- func() {
			defer barrier.Done()
			fn()
		}
	}
	barrier.Wait()
}

func (p *pool) close() {
	close(p.tasks)
	p.wg.Wait()
}
