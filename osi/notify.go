package osi

type notifyStatus uint8

const (
	notifyIdle notifyStatus = iota
	notifyQueuedActive
	notifyQueuedCancel
	notifyQueuedDelete
)

// Notify is a coalescing one-shot trigger bound to a thread. Any number of
// triggers before the thread dispatches collapse into a single callback
// invocation; at any time there is at most one in-flight event per
// notification.
type Notify struct {
	thread *Thread
	cb     Callback
	ctx    any
	status notifyStatus
}

// NotifyCreate creates an idle notification targeting the thread.
func NotifyCreate(thread *Thread, cb Callback, ctx any) *Notify {
	if thread == nil || cb == nil {
		return nil
	}
	return &Notify{thread: thread, cb: cb, ctx: ctx}
}

// Trigger arms the notification. An idle notification enqueues one event; a
// queued one is re-armed without a second enqueue.
func (n *Notify) Trigger() {
	if n == nil {
		return
	}
	critical := EnterCritical()
	send := false
	if n.status == notifyIdle {
		n.status = notifyQueuedActive
		send = true
	} else if n.status != notifyQueuedDelete {
		n.status = notifyQueuedActive
	}
	ExitCritical(critical)

	// The status field alone carries the coalescing invariant; the enqueue
	// itself must not run under the critical section because it may block.
	if send {
		ev := Event{ID: EventNotify, Param1: n}
		EventSend(n.thread, &ev)
	}
}

// Cancel suppresses a pending dispatch. The in-flight event is consumed
// without invoking the callback.
func (n *Notify) Cancel() {
	if n == nil {
		return
	}
	critical := EnterCritical()
	if n.status == notifyQueuedActive {
		n.status = notifyQueuedCancel
	}
	ExitCritical(critical)
}

// Delete releases the notification. With a dispatch in flight the release is
// deferred to the dispatcher.
func (n *Notify) Delete() {
	if n == nil {
		return
	}
	critical := EnterCritical()
	if n.status != notifyIdle {
		n.status = notifyQueuedDelete
	}
	ExitCritical(critical)
}
