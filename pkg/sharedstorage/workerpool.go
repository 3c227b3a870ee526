package sharedstorage

import (
	"runtime"
	"sync"
)

// WorkerPool is a bounded goroutine pool for the async push/get atom and
// bytes operations, grounded on the reference implementation's
// ThreadPoolExecutor(max_workers=(os.cpu_count() or 1) * 5) default.
type WorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewWorkerPool starts workers goroutines draining a job queue. workers <=
// 0 picks runtime.NumCPU()*5, matching the reference implementation's
// default.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU() * 5
	}
	p := &WorkerPool{jobs: make(chan func(), workers*4)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.loop()
	}
	return p
}

func (p *WorkerPool) loop() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues job to run on the next free worker.
func (p *WorkerPool) Submit(job func()) {
	p.jobs <- job
}

// Close stops accepting new jobs and waits for in-flight ones to finish.
func (p *WorkerPool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// submit runs fn on the pool and returns a Future for its result.
func submit[T any](p *WorkerPool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	p.Submit(func() {
		v, err := fn()
		f.complete(v, err)
	})
	return f
}
