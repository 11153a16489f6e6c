// Package hal is the only contact point between the runtime and the outside
// world: logging, pins and serial transports. Host implementations live
// behind build tags; bare-metal ports provide the same surface.
package hal

import "errors"

var ErrNotImplemented = errors.New("not implemented")

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Pin is a minimal output pin abstraction, used for chip selects and
// indicators.
type Pin interface {
	High()
	Low()
}

// Serial is a byte-stream transport.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}
