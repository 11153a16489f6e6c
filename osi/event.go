package osi

import "time"

// EventID discriminates mailbox event kinds.
type EventID uint32

const (
	EventNone EventID = iota
	EventTimer
	EventCallback
	EventNotify
	EventQuit
)

// Event is the fixed-size record carried through thread mailboxes. The
// parameters are opaque to the queue and interpreted by kind on receive;
// records are copied by value across the mailbox boundary.
type Event struct {
	ID     EventID
	Param1 any
	Param2 any
	Param3 any
}

// eventSendBoundMS caps a blocking send into a full mailbox. Past it the
// send fails rather than hold the sender forever.
const eventSendBoundMS = 1000

// EventSend delivers an event to the thread's mailbox. It blocks while the
// mailbox is full, up to an internal bound. Sending to the current thread
// with a full mailbox is fatal: it guarantees deadlock.
func EventSend(t *Thread, ev *Event) bool {
	if t == nil || ev == nil || t.events == nil {
		return false
	}

	if Current() == t {
		select {
		case t.events <- *ev:
			return true
		default:
			Panic("osi: event mailbox full on send to current thread")
		}
	}

	timer := time.NewTimer(eventSendBoundMS * time.Millisecond)
	defer timer.Stop()
	select {
	case t.events <- *ev:
		return true
	case <-timer.C:
		return false
	}
}

// EventTrySend delivers an event, waiting at most timeout milliseconds for
// mailbox space.
func EventTrySend(t *Thread, ev *Event, timeout uint32) bool {
	if t == nil || ev == nil || t.events == nil {
		return false
	}
	switch timeout {
	case 0:
		select {
		case t.events <- *ev:
			return true
		default:
			return false
		}
	case WaitForever:
		t.events <- *ev
		return true
	}
	timer := time.NewTimer(msToDuration(timeout))
	defer timer.Stop()
	select {
	case t.events <- *ev:
		return true
	case <-timer.C:
		return false
	}
}

// EventWait dequeues and dispatches one event from the thread's mailbox,
// blocking until one arrives.
func EventWait(t *Thread, ev *Event) bool {
	return EventTryWait(t, ev, WaitForever)
}

// EventTryWait dequeues one event, waiting at most timeout milliseconds, and
// dispatches it by kind: timer events invoke the timer hook, callback events
// invoke Param1(Param2), notify events run the notification state machine,
// and quit events acknowledge through the semaphore in Param1.
func EventTryWait(t *Thread, ev *Event, timeout uint32) bool {
	if t == nil || ev == nil || t.events == nil {
		return false
	}

	var got Event
	switch timeout {
	case 0:
		select {
		case got = <-t.events:
		default:
			return false
		}
	case WaitForever:
		got = <-t.events
	default:
		timer := time.NewTimer(msToDuration(timeout))
		defer timer.Stop()
		select {
		case got = <-t.events:
		case <-timer.C:
			return false
		}
	}
	*ev = got

	switch ev.ID {
	case EventTimer:
		timerEventInvoke(ev)

	case EventCallback:
		if cb, ok := ev.Param1.(Callback); ok && cb != nil {
			cb(ev.Param2)
		}
		ev.ID = EventNone

	case EventNotify:
		// The status is toggled inside the critical section so a trigger
		// during dispatch re-queues exactly once; the callback runs outside.
		var cb Callback
		var ctx any
		critical := EnterCritical()
		if n, ok := ev.Param1.(*Notify); ok && n != nil {
			switch n.status {
			case notifyQueuedDelete:
				// Dropped here; the collector reclaims it.
			case notifyQueuedActive:
				cb = n.cb
				ctx = n.ctx
				n.status = notifyIdle
			default:
				n.status = notifyIdle
			}
		}
		ExitCritical(critical)
		if cb != nil {
			cb(ctx)
		}
		ev.ID = EventNone

	case EventQuit:
		// The sender may be parked on an acknowledgement semaphore.
		if sema, ok := ev.Param1.(*Semaphore); ok && sema != nil {
			sema.Release()
		}
	}
	return true
}

// SendQuitEvent posts a quit event to the thread. With wait set the call
// blocks until the target's event loop acknowledges; waiting on the current
// thread is refused.
func SendQuitEvent(t *Thread, wait bool) bool {
	if t == nil {
		return false
	}

	ev := Event{ID: EventQuit}
	if !wait {
		return EventSend(t, &ev)
	}

	if t == Current() {
		return false
	}
	sema := SemaphoreCreate(1, 0)
	ev.Param1 = sema
	if !EventSend(t, &ev) {
		return false
	}
	sema.Acquire()
	sema.Delete()
	return true
}

// ThreadCallback posts cb to run with ctx the next time the target thread
// waits for events.
func ThreadCallback(t *Thread, cb Callback, ctx any) bool {
	if t == nil || cb == nil {
		return false
	}
	ev := Event{ID: EventCallback, Param1: cb, Param2: ctx}
	return EventSend(t, &ev)
}

// EventPending reports whether the thread has undelivered events.
func EventPending(t *Thread) bool {
	return EventPendingCount(t) > 0
}

// EventPendingCount returns the number of undelivered events.
func EventPendingCount(t *Thread) uint32 {
	if t == nil || t.events == nil {
		return 0
	}
	return uint32(len(t.events))
}

// EventSpaceCount returns the free mailbox slots.
func EventSpaceCount(t *Thread) uint32 {
	if t == nil || t.events == nil {
		return 0
	}
	return uint32(cap(t.events) - len(t.events))
}
