package cache

import "sync"

// StripedLock partitions locking across a fixed number of mutexes so
// unrelated keys rarely contend. Stripe count must be a power of two.
type StripedLock struct {
	locks []sync.Mutex
	mask  uint64
}

// NewStripedLock builds a striped lock with the given number of stripes,
// rounded up to the next power of two (minimum 1).
func NewStripedLock(stripes int) *StripedLock {
	n := 1
	for n < stripes {
		n <<= 1
	}
	return &StripedLock{locks: make([]sync.Mutex, n), mask: uint64(n - 1)}
}

// Lock returns the mutex responsible for keyHash.
func (s *StripedLock) Lock(keyHash uint64) *sync.Mutex {
	return &s.locks[keyHash&s.mask]
}
