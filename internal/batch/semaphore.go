// Package batch drives the link-rewrite passes over many files with bounded
// concurrency. A counting semaphore caps in-flight file operations; a single
// slow or failing file neither starves nor aborts the rest of its batch.
package batch

// Semaphore is a counting semaphore bounding concurrent file operations.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore returns a semaphore allowing up to maxConcurrent holders.
// Values below 1 are clamped to 1.
func NewSemaphore(maxConcurrent int) *Semaphore {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Semaphore{permits: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	s.permits <- struct{}{}
}

// Release returns a permit. Must be called exactly once per Acquire.
func (s *Semaphore) Release() {
	<-s.permits
}

// Cap returns the configured concurrency limit.
func (s *Semaphore) Cap() int {
	return cap(s.permits)
}
