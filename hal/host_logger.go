//go:build !tinygo

package hal

import (
	"os"
	"sync"
)

type hostLogger struct {
	mu sync.Mutex
}

// NewHostLogger returns a Logger writing to stderr.
func NewHostLogger() Logger {
	return &hostLogger{}
}

func (l *hostLogger) WriteLineString(s string) {
	l.WriteLineBytes([]byte(s))
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = os.Stderr.Write(b)
	_, _ = os.Stderr.Write([]byte{'\n'})
}
