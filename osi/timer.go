package osi

import (
	"sync"
	"time"
)

// Timer is a one-shot timer. With a target thread, expiry posts a Timer
// event to the thread's mailbox and the callback runs from its event loop;
// without one, the callback runs directly on the timing goroutine.
type Timer struct {
	thread *Thread
	cb     Callback
	ctx    any

	mu sync.Mutex
	t  *time.Timer
}

// TimerCreate creates a stopped timer. It returns nil without a callback.
func TimerCreate(thread *Thread, cb Callback, ctx any) *Timer {
	if cb == nil {
		return nil
	}
	return &Timer{thread: thread, cb: cb, ctx: ctx}
}

// Start arms the timer for ms milliseconds, restarting it if already armed.
func (t *Timer) Start(ms uint32) bool {
	return t.startAfter(msToDuration(ms))
}

// StartMicrosecond arms the timer for us microseconds.
func (t *Timer) StartMicrosecond(us uint32) bool {
	return t.startAfter(time.Duration(us) * time.Microsecond)
}

// StartRelaxed arms the timer for ms milliseconds and permits up to relaxMS
// of additional latency, letting expiries coalesce with other timing work.
func (t *Timer) StartRelaxed(ms, relaxMS uint32) bool {
	_ = relaxMS
	return t.startAfter(msToDuration(ms))
}

func (t *Timer) startAfter(d time.Duration) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, t.expire)
	return true
}

func (t *Timer) expire() {
	if t.thread != nil {
		ev := Event{ID: EventTimer, Param1: t}
		// Mailbox full means the expiry is dropped, matching the host
		// timer service.
		EventTrySend(t.thread, &ev, 0)
		return
	}
	t.cb(t.ctx)
}

// Stop disarms the timer. An expiry already in flight may still dispatch.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	return true
}

// Delete stops the timer and releases the handle.
func (t *Timer) Delete() {
	t.Stop()
}

// timerEventInvoke is the dispatcher hook for Timer events.
func timerEventInvoke(ev *Event) {
	if tm, ok := ev.Param1.(*Timer); ok && tm != nil {
		tm.cb(tm.ctx)
	}
	ev.ID = EventNone
}
