package fsys

import (
	"os"
	"sync"
	"sync/atomic"
)

// Counting wraps a Service and records call counts plus the peak number of
// concurrently in-flight operations. Used by tests to assert that validation
// failures touch the filesystem zero times and that batch processing honors
// its concurrency bound.
type Counting struct {
	inner Service

	mu       sync.Mutex
	calls    map[string]int
	inFlight int64
	peak     int64
}

// NewCounting wraps svc with call accounting.
func NewCounting(svc Service) *Counting {
	return &Counting{inner: svc, calls: make(map[string]int)}
}

// Calls returns the total number of recorded calls, or the count for a
// single operation name when one is given.
func (c *Counting) Calls(op ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(op) == 1 {
		return c.calls[op[0]]
	}
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

// Peak returns the maximum number of operations observed in flight at once.
func (c *Counting) Peak() int {
	return int(atomic.LoadInt64(&c.peak))
}

func (c *Counting) enter(op string) func() {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()

	n := atomic.AddInt64(&c.inFlight, 1)
	for {
		p := atomic.LoadInt64(&c.peak)
		if n <= p || atomic.CompareAndSwapInt64(&c.peak, p, n) {
			break
		}
	}
	return func() { atomic.AddInt64(&c.inFlight, -1) }
}

func (c *Counting) Stat(path string) (os.FileInfo, error) {
	defer c.enter("stat")()
	return c.inner.Stat(path)
}

func (c *Counting) ReadDir(path string) ([]os.FileInfo, error) {
	defer c.enter("readdir")()
	return c.inner.ReadDir(path)
}

func (c *Counting) MkdirAll(path string, perm os.FileMode) error {
	defer c.enter("mkdir")()
	return c.inner.MkdirAll(path, perm)
}

func (c *Counting) ReadFile(path string) ([]byte, error) {
	defer c.enter("read")()
	return c.inner.ReadFile(path)
}

func (c *Counting) WriteFile(path string, data []byte, perm os.FileMode) error {
	defer c.enter("write")()
	return c.inner.WriteFile(path, data, perm)
}

func (c *Counting) Remove(path string) error {
	defer c.enter("remove")()
	return c.inner.Remove(path)
}

func (c *Counting) RemoveAll(path string) error {
	defer c.enter("removeall")()
	return c.inner.RemoveAll(path)
}
