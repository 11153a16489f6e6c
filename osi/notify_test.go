package osi

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifyCreateValidation(t *testing.T) {
	th := eventLoopThread("nv")
	defer SendQuitEvent(th, false)

	if NotifyCreate(nil, func(any) {}, nil) != nil {
		t.Fatal("nil thread accepted")
	}
	if NotifyCreate(th, nil, nil) != nil {
		t.Fatal("nil callback accepted")
	}
}

func TestNotifyCoalescing(t *testing.T) {
	// The loop thread is held back until every trigger has been issued.
	gate := SemaphoreCreate(1, 0)
	th := ThreadCreate("coalesce", func(any) {
		gate.Acquire()
		self := Current()
		for {
			var ev Event
			if EventWait(self, &ev) && ev.ID == EventQuit {
				return
			}
		}
	}, nil, PriorityNormal, 0, 16)

	var count atomic.Int32
	fired := make(chan struct{}, 16)
	n := NotifyCreate(th, func(any) {
		count.Add(1)
		fired <- struct{}{}
	}, nil)

	for i := 0; i < 10; i++ {
		n.Trigger()
	}
	if got := EventPendingCount(th); got != 1 {
		t.Fatalf("coalescing broken: %d in-flight events", got)
	}

	gate.Release()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(20 * time.Millisecond)
	if count.Load() != 1 {
		t.Fatalf("callback fired %d times", count.Load())
	}

	// Once consumed, the next trigger dispatches again.
	n.Trigger()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("re-trigger never fired")
	}
	if count.Load() != 2 {
		t.Fatalf("callback fired %d times after re-trigger", count.Load())
	}

	SendQuitEvent(th, false)
}

func TestNotifyCancel(t *testing.T) {
	gate := SemaphoreCreate(1, 0)
	th := ThreadCreate("cancel", func(any) {
		gate.Acquire()
		self := Current()
		for {
			var ev Event
			if EventWait(self, &ev) && ev.ID == EventQuit {
				return
			}
		}
	}, nil, PriorityNormal, 0, 16)

	var count atomic.Int32
	n := NotifyCreate(th, func(any) {
		count.Add(1)
	}, nil)

	n.Trigger()
	n.Cancel()
	gate.Release()
	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Fatalf("cancelled notification fired %d times", count.Load())
	}

	// The cancelled dispatch consumed the event; a new trigger works.
	n.Trigger()
	time.Sleep(50 * time.Millisecond)
	if count.Load() != 1 {
		t.Fatalf("post-cancel trigger fired %d times", count.Load())
	}

	SendQuitEvent(th, false)
}

func TestNotifyDeleteInFlight(t *testing.T) {
	gate := SemaphoreCreate(1, 0)
	th := ThreadCreate("del", func(any) {
		gate.Acquire()
		self := Current()
		for {
			var ev Event
			if EventWait(self, &ev) && ev.ID == EventQuit {
				return
			}
		}
	}, nil, PriorityNormal, 0, 16)

	var count atomic.Int32
	n := NotifyCreate(th, func(any) {
		count.Add(1)
	}, nil)

	n.Trigger()
	n.Delete() // in flight: release deferred to the dispatcher
	gate.Release()
	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Fatalf("deleted notification fired %d times", count.Load())
	}

	SendQuitEvent(th, false)
}
