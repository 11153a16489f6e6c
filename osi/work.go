package osi

import (
	"container/list"
	"sync/atomic"
)

// Work is a schedulable run+complete callback pair with a context. A work
// item belongs to at most one queue at a time: its queue pointer is non-nil
// exactly while it sits on that queue's list.
type Work struct {
	run      Callback
	complete Callback
	ctx      any

	wq   *WorkQueue
	elem *list.Element
}

// WorkQueue owns a single worker thread draining enqueued work items in
// insertion order.
type WorkQueue struct {
	running    atomic.Bool
	thread     *Thread
	workSema   *Semaphore
	finishSema *Semaphore
	work       *list.List
}

// WorkCreate creates a detached work item. run is mandatory; complete runs
// after it when set.
func WorkCreate(run, complete Callback, ctx any) *Work {
	if run == nil {
		return nil
	}
	return &Work{run: run, complete: complete, ctx: ctx}
}

// Delete detaches the work item from its queue, if any, and releases it. A
// consumed or never-enqueued item is already detached.
func (w *Work) Delete() {
	if w == nil {
		return
	}
	critical := EnterCritical()
	w.detachLocked()
	ExitCritical(critical)
}

// ResetCallback replaces the item's callbacks and context.
func (w *Work) ResetCallback(run, complete Callback, ctx any) bool {
	if w == nil || run == nil {
		return false
	}
	critical := EnterCritical()
	w.run = run
	w.complete = complete
	w.ctx = ctx
	ExitCritical(critical)
	return true
}

// Caller holds the critical section.
func (w *Work) detachLocked() {
	if w.wq != nil {
		w.wq.work.Remove(w.elem)
		w.elem = nil
		w.wq = nil
	}
}

// Enqueue places the item at the tail of wq, moving it off any other queue
// first. Re-enqueueing onto the queue it already sits on is a no-op.
func (w *Work) Enqueue(wq *WorkQueue) bool {
	if w == nil || wq == nil {
		return false
	}
	critical := EnterCritical()
	if w.wq != wq {
		w.detachLocked()
		w.elem = wq.work.PushBack(w)
		w.wq = wq
		wq.workSema.Release()
	}
	ExitCritical(critical)
	return true
}

// EnqueueLast places the item at the tail of wq unconditionally, also moving
// an already-enqueued item to the tail of its own queue.
func (w *Work) EnqueueLast(wq *WorkQueue) bool {
	if w == nil || wq == nil {
		return false
	}
	critical := EnterCritical()
	w.detachLocked()
	w.elem = wq.work.PushBack(w)
	w.wq = wq
	wq.workSema.Release()
	ExitCritical(critical)
	return true
}

// Cancel detaches the item from its queue if it has not been consumed yet.
// An item whose callbacks are already running cannot be cancelled.
func (w *Work) Cancel() {
	if w == nil {
		return
	}
	critical := EnterCritical()
	w.detachLocked()
	ExitCritical(critical)
}

// WaitFinish blocks until the item is off its queue or the timeout decays to
// zero. The finish signal is shared by every item on a queue, so the wait
// rechecks the item after each wakeup and tolerates wakeups for other items.
func (w *Work) WaitFinish(timeout uint32) bool {
	if w == nil {
		return false
	}
	var timer ElapsedTimer
	timer.Start()
	for {
		critical := EnterCritical()
		wq := w.wq
		ExitCritical(critical)
		if wq == nil {
			return true
		}
		if timeout == 0 {
			return false
		}
		if timeout == WaitForever {
			wq.finishSema.Acquire()
			continue
		}
		wait := int(timeout) - timer.Elapsed()
		if wait < 0 || !wq.finishSema.TryAcquire(uint32(wait)) {
			return false
		}
	}
}

func (wq *WorkQueue) threadEntry(any) {
	for wq.running.Load() {
		critical := EnterCritical()
		front := wq.work.Front()
		if front == nil {
			ExitCritical(critical)
			wq.workSema.Acquire()
			continue
		}
		w := front.Value.(*Work)
		wq.work.Remove(front)
		w.elem = nil
		w.wq = nil

		// Capture the callbacks before leaving the critical section; the
		// item may be reset or deleted once detached.
		run := w.run
		complete := w.complete
		ctx := w.ctx
		ExitCritical(critical)

		if run != nil {
			run(ctx)
		}
		if complete != nil {
			complete(ctx)
		}
		wq.finishSema.Release()
	}

	// Shutdown: detach whatever is still queued so WaitFinish callers see
	// the items leave.
	critical := EnterCritical()
	for front := wq.work.Front(); front != nil; front = wq.work.Front() {
		w := front.Value.(*Work)
		wq.work.Remove(front)
		w.elem = nil
		w.wq = nil
	}
	ExitCritical(critical)
	wq.finishSema.Release()
	ThreadExit()
}

// WorkQueueCreate spawns a work queue backed by one worker thread. It
// returns nil when resources are unavailable.
func WorkQueueCreate(name string, priority, stackSize uint32) *WorkQueue {
	wq := &WorkQueue{work: list.New()}
	wq.running.Store(true)

	wq.workSema = SemaphoreCreate(1, 1)
	wq.finishSema = SemaphoreCreate(1, 0)
	if wq.workSema == nil || wq.finishSema == nil {
		return nil
	}

	wq.thread = ThreadCreate(name, wq.threadEntry, nil, priority, stackSize, 0)
	if wq.thread == nil {
		return nil
	}
	return wq
}

// Delete stops the queue. The worker thread tears the queue down on its next
// loop iteration, detaching any remaining items.
func (wq *WorkQueue) Delete() {
	if wq == nil {
		return
	}
	// Flag and wakeup change together, so the worker cannot miss the stop.
	critical := EnterCritical()
	wq.running.Store(false)
	wq.workSema.Release()
	ExitCritical(critical)
}

const defaultWorkQueueStack = 8192

var (
	highWq *WorkQueue
	lowWq  *WorkQueue
	fsWq   *WorkQueue
)

// SysWorkQueueInit creates the three process-wide work queues. It is called
// once at boot and is idempotent.
func SysWorkQueueInit() {
	if highWq == nil {
		highWq = WorkQueueCreate("wq_hi", PriorityHigh, defaultWorkQueueStack)
	}
	if lowWq == nil {
		lowWq = WorkQueueCreate("wq_lo", PriorityLow, defaultWorkQueueStack)
	}
	if fsWq == nil {
		fsWq = WorkQueueCreate("wq_fs", PriorityBelowNormal, defaultWorkQueueStack)
	}
}

// SysWorkQueueHighPriority returns the high-priority system work queue.
func SysWorkQueueHighPriority() *WorkQueue { return highWq }

// SysWorkQueueLowPriority returns the low-priority system work queue.
func SysWorkQueueLowPriority() *WorkQueue { return lowWq }

// SysWorkQueueFileWrite returns the file-system work queue, on which all
// flash traffic is conventionally serialised.
func SysWorkQueueFileWrite() *WorkQueue { return fsWq }
