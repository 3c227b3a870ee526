package sharedstorage

import (
	"context"
	"sync"
)

// Future is a one-shot result delivered by a worker pool goroutine,
// mirroring concurrent.futures.Future's role in the reference
// implementation's async push_atom/get_atom contract.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Get blocks until the future resolves or ctx is done, whichever comes
// first. This is the "blocking on boundary" half of spec.md §9's
// "make async optional behind the same contract".
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has resolved without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
