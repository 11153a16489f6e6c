package flash

import (
	"errors"
	"fmt"

	"tinygo.org/x/tinyfs"
)

// pageProgramSize is the largest single PP payload; writes are chunked so no
// program crosses a page boundary.
const pageProgramSize = 256

var errNoDataWindow = errors.New("flash: port has no data read window")

// BlockDevice adapts an initialised Device to tinyfs.BlockDevice so a
// filesystem can mount directly on the part. Reads go through the port's
// memory-mapped window; writes and erases run as batched program/erase
// operations under one prepare/finish envelope.
//
// The adapter inherits the package's serialisation rule: all access to one
// device must come from a single work queue.
type BlockDevice struct {
	d  *Device
	rd DataReader
}

var _ tinyfs.BlockDevice = (*BlockDevice)(nil)

// NewBlockDevice wraps an initialised device. The port must expose a data
// read window.
func NewBlockDevice(d *Device) (*BlockDevice, error) {
	if d == nil || d.capacity == 0 {
		return nil, errors.New("flash: device not initialised")
	}
	rd, ok := d.port.(DataReader)
	if !ok {
		return nil, errNoDataWindow
	}
	return &BlockDevice{d: d, rd: rd}, nil
}

// Size returns the part capacity in bytes.
func (b *BlockDevice) Size() int64 {
	return int64(b.d.capacity)
}

// WriteBlockSize returns the program page size.
func (b *BlockDevice) WriteBlockSize() int64 {
	return pageProgramSize
}

// EraseBlockSize returns the erase sector size.
func (b *BlockDevice) EraseBlockSize() int64 {
	return size4K
}

// ReadAt reads from the flash array.
func (b *BlockDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(b.d.capacity) {
		return 0, fmt.Errorf("flash: read at %d: out of range", off)
	}
	if max := int64(b.d.capacity) - off; int64(len(p)) > max {
		p = p[:max]
	}
	if err := b.rd.ReadData(uint32(off), p); err != nil {
		return 0, fmt.Errorf("flash: read at %d: %w", off, err)
	}
	return len(p), nil
}

// WriteAt programs p at off, page by page, inside one prepare/finish
// envelope. The target range must have been erased.
func (b *BlockDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(b.d.capacity) {
		return 0, fmt.Errorf("flash: write at %d: out of range", off)
	}
	if len(p) == 0 {
		return 0, nil
	}

	b.d.PrepareEraseProgram(uint32(off), uint32(len(p)))
	written := 0
	for written < len(p) {
		offset := uint32(off) + uint32(written)
		n := pageProgramSize - int(offset%pageProgramSize)
		if n > len(p)-written {
			n = len(p) - written
		}
		if written > 0 {
			// Prepare's write enable covers only the first program.
			b.d.WriteEnable()
		}
		b.d.PageProgram(offset, p[written:written+n])
		b.d.WaitWipFinish()
		written += n
	}
	b.d.FinishEraseProgram()
	return written, nil
}

// EraseBlocks erases n 4K sectors starting at sector start.
func (b *BlockDevice) EraseBlocks(start, n int64) error {
	if start < 0 || n < 0 || (start+n)*size4K > int64(b.d.capacity) {
		return fmt.Errorf("flash: erase blocks %d+%d: out of range", start, n)
	}
	if n == 0 {
		return nil
	}

	b.d.PrepareEraseProgram(uint32(start)*size4K, uint32(n)*size4K)
	for i := int64(0); i < n; i++ {
		if i > 0 {
			b.d.WriteEnable()
		}
		b.d.Erase(uint32(start+i)*size4K, size4K)
		b.d.WaitWipFinish()
	}
	b.d.FinishEraseProgram()
	return nil
}
