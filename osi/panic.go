package osi

import (
	"sync"
	"sync/atomic"
)

// PanicHook receives the failure value before the process stops. It must not
// panic and must not block.
type PanicHook func(v any)

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHook atomic.Value // PanicHook
)

// InPanic reports whether a fatal failure has been raised.
func InPanic() bool {
	return panicActive.Load()
}

// SetPanicHook installs a process-wide hook invoked at most once, on the
// first fatal failure.
func SetPanicHook(fn PanicHook) {
	panicHook.Store(fn)
}

// Panic reports an unrecoverable inconsistency: a broken configuration or a
// guaranteed deadlock. The hook runs once, then the calling goroutine panics.
// There is no recovery path.
func Panic(v any) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		if h := panicHook.Load(); h != nil {
			if fn, ok := h.(PanicHook); ok && fn != nil {
				fn(v)
			}
		}
	})
	panic(v)
}
