//go:build !tinygo

package hal

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

type hostSerial struct {
	port *serial.Port
}

// OpenSerial opens a host serial device at the given baud rate. A zero
// readTimeoutMS blocks reads until data arrives.
func OpenSerial(device string, baud int, readTimeoutMS int) (Serial, error) {
	if device == "" {
		return nil, fmt.Errorf("serial: %w", ErrNotImplemented)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Duration(readTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %q: %w", device, err)
	}
	return &hostSerial{port: port}, nil
}

func (s *hostSerial) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *hostSerial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}
