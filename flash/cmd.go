// Package flash implements the SPI NOR flash HAL: a vendor-dispatched status
// register protocol, write-protection range mapping, security register access
// and identification-based property binding, all layered over a small
// controller port abstraction.
//
// The controller is a single shared resource. The package does not lock it
// internally; concurrent callers serialise externally, conventionally by
// running all flash traffic on one work queue.
package flash

// Port is the contact surface with the SPI flash controller. Implementations
// are the real controller front-end, an SPI-bus transport (SPIPort) and the
// in-memory simulator used by tests and host tooling.
type Port interface {
	// WaitNotBusy spins until the controller has no transaction in flight.
	WaitNotBusy()
	// ClearFifo discards controller FIFO state.
	ClearFifo()
	// SetRxSize programs the expected receive byte count.
	SetRxSize(n int)
	// SetFifoWidth programs the FIFO access width in bytes.
	SetFifoWidth(n int)
	// WriteFifo stages TX bytes, stamping the segment for four-line
	// transfer when quad is set.
	WriteFifo(data []byte, quad bool)
	// WriteCommand writes the command register, triggering the hardware
	// transaction.
	WriteCommand(cmd Command)
	// ReadFifo drains received bytes from the FIFO.
	ReadFifo(p []byte)
	// Readback returns the controller readback word for small responses.
	Readback() uint32
}

// DataReader is implemented by ports that expose the memory-mapped read
// window of the flash array.
type DataReader interface {
	ReadData(offset uint32, p []byte) error
}

// Command is the decoded command register payload: an opcode plus an
// optional address, sent as 3 bytes big-endian on the wire.
type Command struct {
	Op      byte
	Addr    uint32
	HasAddr bool
}

// Flags adjust Cmd transfer behaviour.
type Flags uint32

const (
	// RxReadback returns RX bytes through the controller readback word
	// instead of the FIFO. Limited to 4 bytes.
	RxReadback Flags = 1 << iota
	// TxQuad stamps the first TX segment for four-line transfer.
	TxQuad
	// TxQuad2 stamps the second TX segment for four-line transfer.
	TxQuad2
)

// Cmd runs one generic flash command: stage TX, trigger, collect RX either
// from the FIFO or, in readback mode, from the readback word shifted by
// (4-len(rx))*8 and unpacked LSB first.
func Cmd(p Port, cmd Command, tx []byte, rx []byte, flags Flags) {
	p.WaitNotBusy()
	p.ClearFifo()
	p.SetRxSize(len(rx))
	if flags&RxReadback != 0 {
		p.SetFifoWidth(len(rx))
	} else {
		p.SetFifoWidth(1)
	}
	p.WriteFifo(tx, flags&TxQuad != 0)
	p.WriteCommand(cmd)

	if flags&RxReadback == 0 {
		p.ReadFifo(rx)
	}
	p.WaitNotBusy()

	if flags&RxReadback != 0 {
		word := p.Readback() >> ((4 - uint(len(rx))) * 8)
		for i := range rx {
			rx[i] = byte(word)
			word >>= 8
		}
	}
	p.SetRxSize(0)
}

// CmdDualTx runs a command with two TX segments carrying independent
// four-line stamping, for commands whose address and payload differ in line
// width or must not be concatenated.
func CmdDualTx(p Port, cmd Command, tx, tx2 []byte, rx []byte, flags Flags) {
	p.WaitNotBusy()
	p.ClearFifo()
	p.SetRxSize(len(rx))
	if flags&RxReadback != 0 {
		p.SetFifoWidth(len(rx))
	} else {
		p.SetFifoWidth(1)
	}
	p.WriteFifo(tx, flags&TxQuad != 0)
	p.WriteFifo(tx2, flags&TxQuad2 != 0)
	p.WriteCommand(cmd)

	if flags&RxReadback == 0 {
		p.ReadFifo(rx)
	}
	p.WaitNotBusy()

	if flags&RxReadback != 0 {
		word := p.Readback() >> ((4 - uint(len(rx))) * 8)
		for i := range rx {
			rx[i] = byte(word)
			word >>= 8
		}
	}
	p.SetRxSize(0)
}

func cmdOnlyNoRx(p Port, cmd Command) {
	Cmd(p, cmd, nil, nil, 0)
}

func cmdNoRx(p Port, cmd Command, tx []byte) {
	Cmd(p, cmd, tx, nil, 0)
}

func cmdOnlyReadback(p Port, op byte, n int) uint32 {
	rx := make([]byte, n)
	Cmd(p, Command{Op: op}, nil, rx, RxReadback)
	return packLE(rx)
}

func cmdRxReadback(p Port, op byte, n int, tx []byte) uint32 {
	rx := make([]byte, n)
	Cmd(p, Command{Op: op}, tx, rx, RxReadback)
	return packLE(rx)
}

func cmdRxFifo(p Port, op byte, tx, rx []byte) {
	Cmd(p, Command{Op: op}, tx, rx, 0)
}

func cmdNoRxDualTx(p Port, op byte, tx, tx2 []byte) {
	CmdDualTx(p, Command{Op: op}, tx, tx2, nil, 0)
}

// packLE packs received bytes into a word, first byte at the LSB.
func packLE(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// addrBytes encodes a 3-byte big-endian wire address.
func addrBytes(addr uint32) [3]byte {
	return [3]byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
}
