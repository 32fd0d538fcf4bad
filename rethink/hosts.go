package rethink

import (
	"sync"
	"sync/atomic"
)

// hostPool deals endpoints out round-robin. Adapter instances are
// constructed concurrently at benchmark start, so the cursor is a single
// atomic counter: instance i gets host i mod len(addrs).
type hostPool struct {
	addrs []string
	next  uint64
}

func newHostPool(addrs []string) *hostPool {
	return &hostPool{
		addrs: addrs,
	}
}

func (self *hostPool) nextAddr() string {
	n := atomic.AddUint64(&self.next, 1) - 1
	return self.addrs[n%uint64(len(self.addrs))]
}

var (
	poolMu     sync.Mutex
	sharedPool *hostPool
)

// sharedHostPool returns the process-wide pool, creating it from the first
// instance's host list. All instances run with the same properties, so
// later host lists are assumed identical and ignored.
func sharedHostPool(addrs []string) *hostPool {
	poolMu.Lock()
	defer poolMu.Unlock()
	if sharedPool == nil {
		sharedPool = newHostPool(addrs)
	}
	return sharedPool
}
