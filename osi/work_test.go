package osi

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkCreateRequiresRun(t *testing.T) {
	if WorkCreate(nil, nil, nil) != nil {
		t.Fatal("work without run callback accepted")
	}
}

func TestWorkQueueOrdering(t *testing.T) {
	wq := WorkQueueCreate("wq_test", PriorityNormal, 0)
	if wq == nil {
		t.Fatal("WorkQueueCreate failed")
	}
	defer wq.Delete()

	var mu sync.Mutex
	var runs, completes []int

	items := make([]*Work, 3)
	for i := range items {
		i := i
		items[i] = WorkCreate(func(any) {
			mu.Lock()
			runs = append(runs, i+1)
			mu.Unlock()
		}, func(any) {
			mu.Lock()
			completes = append(completes, i+1)
			mu.Unlock()
		}, nil)
	}

	for _, w := range items {
		if !w.Enqueue(wq) {
			t.Fatal("enqueue failed")
		}
	}

	if !items[2].WaitFinish(WaitForever) {
		t.Fatal("WaitFinish failed")
	}
	// After the third completion WaitFinish returns immediately.
	if !items[2].WaitFinish(0) {
		t.Fatal("WaitFinish on finished item should succeed at once")
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		done := len(completes) == 3
		mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(runs) != 3 || len(completes) != 3 {
		t.Fatalf("runs=%v completes=%v", runs, completes)
	}
	for i := 0; i < 3; i++ {
		if runs[i] != i+1 || completes[i] != i+1 {
			t.Fatalf("order violated: runs=%v completes=%v", runs, completes)
		}
	}
}

func TestWorkQueueMembershipInvariant(t *testing.T) {
	wq := WorkQueueCreate("wq_member", PriorityNormal, 0)
	defer wq.Delete()

	gate := make(chan struct{})
	blocker := WorkCreate(func(any) { <-gate }, nil, nil)
	blocker.Enqueue(wq)
	defer close(gate)

	w := WorkCreate(func(any) {}, nil, nil)
	if w.wq != nil {
		t.Fatal("detached item claims a queue")
	}
	w.Enqueue(wq)
	if w.wq != wq || w.elem == nil {
		t.Fatal("enqueued item not on the queue list")
	}
	w.Cancel()
	if w.wq != nil || w.elem != nil {
		t.Fatal("cancelled item still on a queue")
	}
}

func TestWorkCancelPreventsRun(t *testing.T) {
	wq := WorkQueueCreate("wq_cancel", PriorityNormal, 0)
	defer wq.Delete()

	gate := make(chan struct{})
	blocker := WorkCreate(func(any) { <-gate }, nil, nil)
	blocker.Enqueue(wq)

	var ran atomic.Bool
	w := WorkCreate(func(any) { ran.Store(true) }, nil, nil)
	w.Enqueue(wq)
	w.Cancel()

	close(gate)
	time.Sleep(50 * time.Millisecond)
	if ran.Load() {
		t.Fatal("cancelled work ran")
	}
	if !w.WaitFinish(0) {
		t.Fatal("cancelled work is detached; WaitFinish must succeed")
	}
}

func TestWorkEnqueueMovesBetweenQueues(t *testing.T) {
	wq1 := WorkQueueCreate("wq_m1", PriorityNormal, 0)
	wq2 := WorkQueueCreate("wq_m2", PriorityNormal, 0)
	defer wq1.Delete()
	defer wq2.Delete()

	gate1 := make(chan struct{})
	gate2 := make(chan struct{})
	WorkCreate(func(any) { <-gate1 }, nil, nil).Enqueue(wq1)
	WorkCreate(func(any) { <-gate2 }, nil, nil).Enqueue(wq2)
	defer close(gate1)

	var onQueue atomic.Int32
	w := WorkCreate(func(any) {}, nil, nil)
	w.ResetCallback(func(any) { onQueue.Store(2) }, nil, nil)

	w.Enqueue(wq1)
	w.Enqueue(wq2) // moves off wq1
	if w.wq != wq2 {
		t.Fatal("item did not move")
	}

	close(gate2)
	if !w.WaitFinish(1000) {
		t.Fatal("moved item never finished")
	}
	deadline := time.Now().Add(time.Second)
	for onQueue.Load() != 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if onQueue.Load() != 2 {
		t.Fatal("moved item did not run on the second queue")
	}
}

func TestWorkEnqueueLastMovesToTail(t *testing.T) {
	wq := WorkQueueCreate("wq_tail", PriorityNormal, 0)
	defer wq.Delete()

	gate := make(chan struct{})
	WorkCreate(func(any) { <-gate }, nil, nil).Enqueue(wq)

	var mu sync.Mutex
	var order []string
	mk := func(name string) *Work {
		return WorkCreate(func(any) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}, nil, nil)
	}

	a := mk("a")
	b := mk("b")
	a.Enqueue(wq)
	b.Enqueue(wq)
	// A plain Enqueue on the same queue is a no-op; EnqueueLast moves a
	// behind b.
	a.Enqueue(wq)
	a.EnqueueLast(wq)

	close(gate)
	if !a.WaitFinish(1000) || !b.WaitFinish(1000) {
		t.Fatal("items never finished")
	}

	// WaitFinish observes the detach; give the run callbacks a moment.
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		done := len(order) == 2
		mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("order after EnqueueLast: %v", order)
	}
}

func TestWorkWaitFinishTimeout(t *testing.T) {
	wq := WorkQueueCreate("wq_timeout", PriorityNormal, 0)
	defer wq.Delete()

	gate := make(chan struct{})
	WorkCreate(func(any) { <-gate }, nil, nil).Enqueue(wq)
	defer close(gate)

	w := WorkCreate(func(any) {}, nil, nil)
	w.Enqueue(wq)

	start := time.Now()
	if w.WaitFinish(30) {
		t.Fatal("WaitFinish should time out behind the blocker")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("WaitFinish returned too early")
	}
	if w.WaitFinish(0) {
		t.Fatal("zero timeout on queued item must fail")
	}
}

func TestWorkQueueDeleteDetachesPending(t *testing.T) {
	wq := WorkQueueCreate("wq_del", PriorityNormal, 0)

	gate := make(chan struct{})
	WorkCreate(func(any) { <-gate }, nil, nil).Enqueue(wq)

	w := WorkCreate(func(any) {}, nil, nil)
	w.Enqueue(wq)

	wq.Delete()
	close(gate)

	if !w.WaitFinish(1000) {
		t.Fatal("shutdown must detach pending items")
	}
}

func TestSysWorkQueues(t *testing.T) {
	SysWorkQueueInit()
	SysWorkQueueInit() // idempotent

	queues := []*WorkQueue{
		SysWorkQueueHighPriority(),
		SysWorkQueueLowPriority(),
		SysWorkQueueFileWrite(),
	}
	for i, wq := range queues {
		if wq == nil {
			t.Fatalf("system queue %d missing", i)
		}
	}

	done := SemaphoreCreate(1, 0)
	w := WorkCreate(func(ctx any) {
		ctx.(*Semaphore).Release()
	}, nil, done)
	w.Enqueue(SysWorkQueueFileWrite())
	if !done.TryAcquire(1000) {
		t.Fatal("file-write queue did not run the item")
	}
}
