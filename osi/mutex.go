package osi

import (
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// Mutex is a recursive mutual-exclusion lock with owner tracking. The owner
// may reacquire it; each acquisition must be balanced by an Unlock. Behaviour
// of Unlock by a non-owner is undefined; this implementation ignores it.
type Mutex struct {
	state sync.Mutex // guards owner and depth
	owner int64
	depth uint32
	slot  chan struct{} // holds the lock token while the mutex is free
}

// MutexCreate creates an unlocked recursive mutex.
func MutexCreate() *Mutex {
	m := &Mutex{slot: make(chan struct{}, 1)}
	m.slot <- struct{}{}
	return m
}

// Lock acquires the mutex, blocking until it is available.
func (m *Mutex) Lock() {
	m.lock(WaitForever)
}

// TryLock acquires the mutex, waiting at most timeout milliseconds.
func (m *Mutex) TryLock(timeout uint32) bool {
	return m.lock(timeout)
}

func (m *Mutex) lock(timeout uint32) bool {
	if m == nil {
		return false
	}
	id := goid.Get()
	m.state.Lock()
	if m.owner == id {
		m.depth++
		m.state.Unlock()
		return true
	}
	m.state.Unlock()

	switch timeout {
	case 0:
		select {
		case <-m.slot:
		default:
			return false
		}
	case WaitForever:
		<-m.slot
	default:
		t := time.NewTimer(msToDuration(timeout))
		defer t.Stop()
		select {
		case <-m.slot:
		case <-t.C:
			return false
		}
	}

	m.state.Lock()
	m.owner = id
	m.depth = 1
	m.state.Unlock()
	return true
}

// Unlock releases one level of ownership; at depth zero the mutex becomes
// available to other threads.
func (m *Mutex) Unlock() {
	if m == nil {
		return
	}
	id := goid.Get()
	m.state.Lock()
	if m.owner != id || m.depth == 0 {
		m.state.Unlock()
		return
	}
	m.depth--
	if m.depth > 0 {
		m.state.Unlock()
		return
	}
	m.owner = 0
	m.state.Unlock()
	m.slot <- struct{}{}
}

// Delete releases the mutex handle.
func (m *Mutex) Delete() {}
