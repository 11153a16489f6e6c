package osi

import (
	"testing"
	"time"
)

func TestMessageQueueCreate(t *testing.T) {
	if MessageQueueCreate(0, 4) != nil || MessageQueueCreate(4, 0) != nil {
		t.Fatal("expected nil for zero parameters")
	}
	if MessageQueueCreate(4, 8) == nil {
		t.Fatal("expected queue")
	}
}

func TestMessageQueueCopiesByValue(t *testing.T) {
	q := MessageQueueCreate(2, 4)

	msg := []byte{1, 2, 3, 4}
	if !q.Put(msg) {
		t.Fatal("put failed")
	}
	// Mutating the sender's buffer after Put must not affect the element.
	msg[0] = 0xff

	out := make([]byte, 4)
	if !q.Get(out) {
		t.Fatal("get failed")
	}
	if out[0] != 1 || out[3] != 4 {
		t.Fatalf("element not copied: %v", out)
	}
}

func TestMessageQueueShortBuffer(t *testing.T) {
	q := MessageQueueCreate(2, 4)
	if q.Put([]byte{1}) {
		t.Fatal("short put must fail")
	}
	if q.TryGet(make([]byte, 2), 0) {
		t.Fatal("short get must fail")
	}
}

func TestMessageQueueTryTimeouts(t *testing.T) {
	q := MessageQueueCreate(1, 1)
	if !q.TryPut([]byte{1}, 0) {
		t.Fatal("put into empty queue")
	}
	if q.TryPut([]byte{2}, 0) {
		t.Fatal("put into full queue without timeout")
	}

	start := time.Now()
	if q.TryPut([]byte{2}, 30) {
		t.Fatal("put into full queue should time out")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("timed put returned too early")
	}

	out := make([]byte, 1)
	if !q.TryGet(out, 0) || out[0] != 1 {
		t.Fatalf("get: %v", out)
	}
	if q.TryGet(out, 0) {
		t.Fatal("get from empty queue")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Put([]byte{9})
	}()
	if !q.TryGet(out, 1000) || out[0] != 9 {
		t.Fatalf("timed get: %v", out)
	}
}

func TestMessageQueueCounters(t *testing.T) {
	q := MessageQueueCreate(3, 1)
	q.Put([]byte{1})
	q.Put([]byte{2})
	if q.Pending() != 2 || q.Space() != 1 {
		t.Fatalf("pending=%d space=%d", q.Pending(), q.Space())
	}
}
