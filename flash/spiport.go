package flash

import (
	"tinygo.org/x/drivers"

	"ember/hal"
)

// SPIPort implements Port over a plain SPI bus with a chip-select pin, for
// transports without a dedicated flash controller front-end. The staged TX
// segments and RX size mimic the controller FIFO model; the transaction
// itself happens at WriteCommand.
//
// Quad stamping is a controller capability; a plain bus always transfers on
// one line, so the quad flags are accepted and ignored.
type SPIPort struct {
	bus drivers.SPI
	cs  hal.Pin

	rxSize   int
	tx       []byte
	rx       []byte
	readback uint32
	err      error
}

// NewSPIPort binds a bus and chip-select pin. The pin is driven high
// (deselected) immediately.
func NewSPIPort(bus drivers.SPI, cs hal.Pin) *SPIPort {
	cs.High()
	return &SPIPort{bus: bus, cs: cs}
}

// Err returns the first bus error since the last ClearFifo.
func (p *SPIPort) Err() error {
	return p.err
}

// WaitNotBusy is a no-op: plain bus transactions are synchronous.
func (p *SPIPort) WaitNotBusy() {}

// ClearFifo discards staged transfer state.
func (p *SPIPort) ClearFifo() {
	p.tx = p.tx[:0]
	p.rx = nil
	p.readback = 0
	p.err = nil
}

// SetRxSize programs the expected receive byte count.
func (p *SPIPort) SetRxSize(n int) {
	p.rxSize = n
}

// SetFifoWidth is a no-op on a byte-oriented bus.
func (p *SPIPort) SetFifoWidth(int) {}

// WriteFifo stages TX bytes.
func (p *SPIPort) WriteFifo(data []byte, quad bool) {
	_ = quad
	p.tx = append(p.tx, data...)
}

// WriteCommand runs the staged transaction: opcode, optional 3-byte
// big-endian address, staged TX, then the programmed RX size.
func (p *SPIPort) WriteCommand(cmd Command) {
	frame := make([]byte, 0, 4+len(p.tx))
	frame = append(frame, cmd.Op)
	if cmd.HasAddr {
		a := addrBytes(cmd.Addr)
		frame = append(frame, a[0], a[1], a[2])
	}
	frame = append(frame, p.tx...)

	p.cs.Low()
	if err := p.bus.Tx(frame, nil); err != nil && p.err == nil {
		p.err = err
	}
	if p.rxSize > 0 {
		p.rx = make([]byte, p.rxSize)
		if err := p.bus.Tx(nil, p.rx); err != nil && p.err == nil {
			p.err = err
		}
		if p.rxSize <= 4 {
			p.readback = packLE(p.rx) << ((4 - uint(p.rxSize)) * 8)
		}
	}
	p.cs.High()
	p.tx = p.tx[:0]
}

// ReadFifo drains received bytes.
func (p *SPIPort) ReadFifo(b []byte) {
	copy(b, p.rx)
}

// Readback returns the packed readback word.
func (p *SPIPort) Readback() uint32 {
	return p.readback
}

// ReadData implements DataReader with the plain read command 03H.
func (p *SPIPort) ReadData(offset uint32, b []byte) error {
	a := addrBytes(offset)
	frame := []byte{0x03, a[0], a[1], a[2]}

	p.cs.Low()
	defer p.cs.High()
	if err := p.bus.Tx(frame, nil); err != nil {
		return err
	}
	return p.bus.Tx(nil, b)
}
