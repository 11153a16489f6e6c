package osi

import "time"

// Semaphore is a counting semaphore. A maximum count of 1 gives the binary
// form. Release never blocks and saturates at the maximum, so it is safe from
// any context, including completion callbacks.
type Semaphore struct {
	ch chan struct{}
}

// SemaphoreCreate creates a semaphore with the given maximum and initial
// count. It returns nil when the parameters are unusable.
func SemaphoreCreate(maxCount, initCount uint32) *Semaphore {
	if maxCount == 0 || initCount > maxCount {
		return nil
	}
	s := &Semaphore{ch: make(chan struct{}, maxCount)}
	for i := uint32(0); i < initCount; i++ {
		s.ch <- struct{}{}
	}
	return s
}

// Acquire takes one count, blocking until one is available.
func (s *Semaphore) Acquire() bool {
	if s == nil {
		return false
	}
	<-s.ch
	return true
}

// TryAcquire takes one count, waiting at most timeout milliseconds. A zero
// timeout is a non-blocking try; WaitForever blocks indefinitely.
func (s *Semaphore) TryAcquire(timeout uint32) bool {
	if s == nil {
		return false
	}
	switch timeout {
	case 0:
		select {
		case <-s.ch:
			return true
		default:
			return false
		}
	case WaitForever:
		<-s.ch
		return true
	}
	t := time.NewTimer(msToDuration(timeout))
	defer t.Stop()
	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}

// Release returns one count, saturating at the maximum.
func (s *Semaphore) Release() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Delete releases the semaphore. Retained for API symmetry with the other
// handle types; the collector reclaims the storage.
func (s *Semaphore) Delete() {}
