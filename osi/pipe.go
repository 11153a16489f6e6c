package osi

// Pipe event mask bits delivered to reader and writer callbacks.
const (
	// PipeEventRxArrived fires toward the reader when a write deposits data.
	PipeEventRxArrived uint32 = 1 << iota
	// PipeEventTxComplete fires toward the writer when a read drains
	// everything deposited so far.
	PipeEventTxComplete
)

// PipeEventCallback observes pipe transitions. Callbacks run on the thread
// that triggered the transition, outside the critical section; they must be
// short and must not block.
type PipeEventCallback func(ctx any, event uint32)

// Pipe is a thread-safe bounded byte stream with blocking helpers, EOF
// signalling and optional transition callbacks. The read and write counters
// grow monotonically: 0 <= wr-rd <= size holds across all interleavings.
type Pipe struct {
	running  bool
	eof      bool
	dataDone bool
	size     uint64
	rd       uint64
	wr       uint64
	rdAvail  *Semaphore
	wrAvail  *Semaphore

	rdCBMask uint32
	rdCB     PipeEventCallback
	rdCBCtx  any
	wrCBMask uint32
	wrCB     PipeEventCallback
	wrCBCtx  any

	data []byte
}

// PipeCreate creates a pipe with a buffer of size bytes. It returns nil for
// a zero size or when resources are unavailable.
func PipeCreate(size uint32) *Pipe {
	if size == 0 {
		return nil
	}
	p := &Pipe{
		running: true,
		size:    uint64(size),
		data:    make([]byte, size),
	}
	p.wrAvail = SemaphoreCreate(1, 1)
	p.rdAvail = SemaphoreCreate(1, 0)
	if p.wrAvail == nil || p.rdAvail == nil {
		return nil
	}
	return p
}

// Delete releases the pipe handle.
func (p *Pipe) Delete() {}

// Reset restores a stopped or drained pipe for reuse, discarding buffered
// bytes.
func (p *Pipe) Reset() {
	if p == nil {
		return
	}
	critical := EnterCritical()
	p.rd = 0
	p.wr = 0
	p.running = true
	p.eof = false
	ExitCritical(critical)
}

// Stop makes all further reads and writes fail and wakes blocked callers.
// Stopping is terminal until Reset.
func (p *Pipe) Stop() {
	if p == nil {
		return
	}
	critical := EnterCritical()
	p.running = false
	p.wrAvail.Release()
	p.rdAvail.Release()
	ExitCritical(critical)
}

// IsStopped reports whether the pipe has been stopped.
func (p *Pipe) IsStopped() bool {
	return p != nil && !p.running
}

// SetEof marks the write side closed: writes fail immediately, reads drain
// the remaining bytes and then fail.
func (p *Pipe) SetEof() {
	if p == nil {
		return
	}
	critical := EnterCritical()
	p.eof = true
	p.wrAvail.Release()
	p.rdAvail.Release()
	ExitCritical(critical)
}

// IsEof reports whether the write side is closed.
func (p *Pipe) IsEof() bool {
	return p != nil && p.eof
}

// SetDataEnd records that the producer has deposited everything it will.
// The first read finding the pipe empty afterwards transitions it to EOF.
func (p *Pipe) SetDataEnd() {
	if p == nil {
		return
	}
	critical := EnterCritical()
	p.dataDone = true
	ExitCritical(critical)
}

// SetWriterCallback registers the writer-side callback for the events in
// mask.
func (p *Pipe) SetWriterCallback(mask uint32, cb PipeEventCallback, ctx any) {
	if p == nil {
		return
	}
	p.wrCBMask = mask
	p.wrCB = cb
	p.wrCBCtx = ctx
}

// SetReaderCallback registers the reader-side callback for the events in
// mask.
func (p *Pipe) SetReaderCallback(mask uint32, cb PipeEventCallback, ctx any) {
	if p == nil {
		return
	}
	p.rdCBMask = mask
	p.rdCB = cb
	p.rdCBCtx = ctx
}

// Read copies up to len(buf) buffered bytes without blocking. It returns 0
// when the pipe is empty, and -1 once the pipe is stopped or EOF has been
// reached with nothing left to drain. Draining everything the writer had
// deposited fires the writer's TxComplete callback.
func (p *Pipe) Read(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if p == nil {
		return -1
	}

	critical := EnterCritical()
	bytes := p.wr - p.rd
	n := uint64(len(buf))
	if n > bytes {
		n = bytes
	}
	rd := p.rd

	if !p.running {
		ExitCritical(critical)
		return -1
	}
	if n == 0 {
		if p.dataDone && !p.eof {
			p.eof = true
			p.wrAvail.Release()
			p.rdAvail.Release()
		}
		eof := p.eof
		ExitCritical(critical)
		if eof {
			return -1
		}
		return 0
	}

	offset := rd % p.size
	tail := p.size - offset
	if tail >= n {
		copy(buf, p.data[offset:offset+n])
	} else {
		copy(buf, p.data[offset:])
		copy(buf[tail:], p.data[:n-tail])
	}
	p.rd += n
	ExitCritical(critical)

	if n == bytes {
		if p.wrCB != nil && p.wrCBMask&PipeEventTxComplete != 0 {
			p.wrCB(p.wrCBCtx, PipeEventTxComplete)
		}
	}
	p.wrAvail.Release()
	return int(n)
}

// Write copies up to len(buf) bytes into the pipe without blocking. It
// returns 0 when the pipe is full and -1 once stopped or EOF. Depositing
// data fires the reader's RxArrived callback.
func (p *Pipe) Write(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if p == nil {
		return -1
	}

	critical := EnterCritical()
	space := p.size - (p.wr - p.rd)
	n := uint64(len(buf))
	if n > space {
		n = space
	}
	wr := p.wr

	if !p.running || p.eof {
		ExitCritical(critical)
		return -1
	}
	if n == 0 {
		ExitCritical(critical)
		return 0
	}

	offset := wr % p.size
	tail := p.size - offset
	if tail >= n {
		copy(p.data[offset:], buf[:n])
	} else {
		copy(p.data[offset:], buf[:tail])
		copy(p.data, buf[tail:n])
	}
	p.wr += n
	ExitCritical(critical)

	if p.rdCB != nil && p.rdCBMask&PipeEventRxArrived != 0 {
		p.rdCB(p.rdCBCtx, PipeEventRxArrived)
	}
	p.rdAvail.Release()
	return int(n)
}

// ReadAll reads until buf is filled, the timeout decays to zero, EOF is
// reached, or the pipe fails. It returns the bytes read so far on timeout
// and -1 on stop or drained EOF.
func (p *Pipe) ReadAll(buf []byte, timeout uint32) int {
	if len(buf) == 0 {
		return 0
	}
	if p == nil {
		return -1
	}

	total := 0
	var timer ElapsedTimer
	timer.Start()
	for {
		n := p.Read(buf[total:])
		if n < 0 {
			return -1
		}
		total += n
		if total == len(buf) || timeout == 0 || p.eof {
			break
		}

		if timeout == WaitForever {
			p.rdAvail.Acquire()
		} else {
			wait := int(timeout) - timer.Elapsed()
			if wait < 0 || !p.rdAvail.TryAcquire(uint32(wait)) {
				break
			}
		}
	}
	return total
}

// WriteAll writes until buf is consumed, the timeout decays to zero, or the
// pipe fails. It returns the bytes written so far on timeout and -1 on stop
// or EOF.
func (p *Pipe) WriteAll(buf []byte, timeout uint32) int {
	if len(buf) == 0 {
		return 0
	}
	if p == nil {
		return -1
	}

	total := 0
	var timer ElapsedTimer
	timer.Start()
	for {
		n := p.Write(buf[total:])
		if n < 0 {
			return -1
		}
		total += n
		if total == len(buf) || timeout == 0 {
			break
		}

		if timeout == WaitForever {
			p.wrAvail.Acquire()
		} else {
			wait := int(timeout) - timer.Elapsed()
			if wait < 0 || !p.wrAvail.TryAcquire(uint32(wait)) {
				break
			}
		}
	}
	return total
}

// ReadAvail returns the byte count available for reading.
func (p *Pipe) ReadAvail() int {
	if p == nil {
		return -1
	}
	critical := EnterCritical()
	bytes := p.wr - p.rd
	ExitCritical(critical)
	return int(bytes)
}

// WriteAvail returns the byte count available for writing.
func (p *Pipe) WriteAvail() int {
	if p == nil {
		return -1
	}
	critical := EnterCritical()
	space := p.size - (p.wr - p.rd)
	ExitCritical(critical)
	return int(space)
}

// WaitReadAvail blocks until data is readable, the pipe stops or reaches
// EOF, or the timeout decays to zero.
func (p *Pipe) WaitReadAvail(timeout uint32) bool {
	if p == nil {
		return false
	}
	var timer ElapsedTimer
	timer.Start()
	for {
		if !p.running {
			return false
		}
		if p.ReadAvail() > 0 {
			return true
		}
		if p.eof {
			return false
		}

		if timeout == WaitForever {
			p.rdAvail.Acquire()
		} else {
			wait := int(timeout) - timer.Elapsed()
			if wait < 0 || !p.rdAvail.TryAcquire(uint32(wait)) {
				return false
			}
		}
	}
}

// WaitWriteAvail blocks until space is writable, the pipe stops, or the
// timeout decays to zero.
func (p *Pipe) WaitWriteAvail(timeout uint32) bool {
	if p == nil {
		return false
	}
	var timer ElapsedTimer
	timer.Start()
	for {
		if !p.running {
			return false
		}
		if p.WriteAvail() > 0 {
			return true
		}

		if timeout == WaitForever {
			p.wrAvail.Acquire()
		} else {
			wait := int(timeout) - timer.Elapsed()
			if wait < 0 || !p.wrAvail.TryAcquire(uint32(wait)) {
				return false
			}
		}
	}
}
