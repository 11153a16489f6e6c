package osi

import (
	"runtime"
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// Thread priority levels, mirroring the host kernel's fixed set. On a hosted
// Go runtime they are advisory.
const (
	PriorityLow uint32 = iota + 1
	PriorityBelowNormal
	PriorityNormal
	PriorityAboveNormal
	PriorityHigh
)

// Thread is a schedulable unit with an optional private event mailbox. The
// mailbox is reachable only through the thread handle and is sized at
// creation; threads created without one fail all event operations.
type Thread struct {
	name     string
	priority uint32
	events   chan Event // nil when created without a mailbox
}

// The current-thread mapping is a sidecar table keyed by goroutine id, the
// hosted stand-in for kernel thread-local storage.
var threads struct {
	mu     sync.Mutex
	byGoid map[int64]*Thread
}

func registerCurrent(t *Thread) {
	id := goid.Get()
	threads.mu.Lock()
	if threads.byGoid == nil {
		threads.byGoid = make(map[int64]*Thread)
	}
	threads.byGoid[id] = t
	threads.mu.Unlock()
}

func unregisterCurrent() {
	id := goid.Get()
	threads.mu.Lock()
	delete(threads.byGoid, id)
	threads.mu.Unlock()
}

// ThreadCreate starts a thread running entry(arg). A nonzero eventCount
// allocates the thread's event mailbox; the mailbox exists before the thread
// runs, so events may be sent to the handle immediately. stackSize is
// advisory on a hosted runtime.
func ThreadCreate(name string, entry Callback, arg any, priority, stackSize, eventCount uint32) *Thread {
	if entry == nil {
		return nil
	}
	if name == "" {
		name = "(thread)"
	}
	_ = stackSize

	t := &Thread{name: name, priority: priority}
	if eventCount > 0 {
		t.events = make(chan Event, eventCount)
	}

	go func() {
		registerCurrent(t)
		defer unregisterCurrent()
		entry(arg)
	}()
	return t
}

// Current returns the calling thread, or nil when the caller was not created
// through ThreadCreate.
func Current() *Thread {
	id := goid.Get()
	threads.mu.Lock()
	t := threads.byGoid[id]
	threads.mu.Unlock()
	return t
}

// Name returns the thread name.
func (t *Thread) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Priority returns the thread priority.
func (t *Thread) Priority() uint32 {
	if t == nil {
		return 0
	}
	return t.priority
}

// SetPriority records a new advisory priority.
func (t *Thread) SetPriority(priority uint32) bool {
	if t == nil {
		return false
	}
	t.priority = priority
	return true
}

// ThreadYield offers the processor to other runnable threads.
func ThreadYield() {
	runtime.Gosched()
}

// ThreadSleep delays the calling thread for ms milliseconds of kernel ticks.
func ThreadSleep(ms uint32) {
	time.Sleep(msToDuration(ms))
}

// ThreadSleepUS delays the calling thread for us microseconds, using a
// one-shot timer signalling a temporary binary semaphore.
func ThreadSleepUS(us uint32) {
	sema := SemaphoreCreate(1, 0)
	timer := TimerCreate(nil, func(ctx any) {
		ctx.(*Semaphore).Release()
	}, sema)
	timer.StartMicrosecond(us)
	sema.Acquire()
	timer.Delete()
	sema.Delete()
}

// ThreadSleepRelaxed delays the calling thread for ms milliseconds with up to
// relaxMS of additional slack, allowing expiry coalescing.
func ThreadSleepRelaxed(ms, relaxMS uint32) {
	sema := SemaphoreCreate(1, 0)
	timer := TimerCreate(nil, func(ctx any) {
		ctx.(*Semaphore).Release()
	}, sema)
	timer.StartRelaxed(ms, relaxMS)
	sema.Acquire()
	timer.Delete()
	sema.Delete()
}

// ThreadExit terminates the calling thread.
func ThreadExit() {
	unregisterCurrent()
	runtime.Goexit()
}
