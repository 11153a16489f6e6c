package osi

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// The runtime uses a single process-wide critical section, the hosted stand-in
// for a global interrupt disable. It is recursive for its owner; the token
// returned by EnterCritical is the nesting state to restore on exit.
//
// Nothing may block while the critical section is held.
var crit struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth uint32
}

// EnterCritical enters the critical section and returns an opaque token
// capturing the prior nesting state. Calls nest.
func EnterCritical() uint32 {
	id := goid.Get()
	if crit.owner.Load() == id {
		token := crit.depth
		crit.depth++
		return token
	}
	crit.mu.Lock()
	crit.owner.Store(id)
	crit.depth = 1
	return 0
}

// ExitCritical restores the state captured by the matching EnterCritical.
func ExitCritical(token uint32) {
	if crit.owner.Load() != goid.Get() {
		return
	}
	if token == 0 {
		crit.depth = 0
		crit.owner.Store(0)
		crit.mu.Unlock()
		return
	}
	crit.depth = token
}
