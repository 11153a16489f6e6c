package osi

import "sync"

// Tick accounting for the cooperative tick driver. The handler tolerates
// duplicate ticks from rounding but treats a regression as unrecoverable.
var tickState struct {
	mu      sync.Mutex
	valid   bool
	prev    uint32
	stepped uint64
}

// TickSetInitial aligns the tick accounting with the hardware tick at boot.
// It must run before any timed call.
func TickSetInitial(ostick uint32) {
	tickState.mu.Lock()
	tickState.prev = ostick
	tickState.stepped = uint64(ostick)
	tickState.valid = true
	tickState.mu.Unlock()
}

// TickHandler advances tick accounting to the absolute kernel tick ostick.
func TickHandler(ostick uint32) {
	tickState.mu.Lock()
	defer tickState.mu.Unlock()

	if !tickState.valid {
		tickState.prev = ostick
		tickState.stepped = uint64(ostick)
		tickState.valid = true
		return
	}

	// Though it shouldn't happen, a zero delta is hard to avoid completely
	// due to rounding error.
	delta := int32(ostick - tickState.prev)
	if delta == 0 {
		return
	}
	if delta < 0 {
		Panic("osi: tick regression")
	}

	tickState.prev = ostick
	tickState.stepped += uint64(delta)
}

// TickCount returns the accumulated tick count.
func TickCount() uint64 {
	tickState.mu.Lock()
	defer tickState.mu.Unlock()
	return tickState.stepped
}
