package osi

// Fifo is a single-producer single-consumer byte ring. The read and write
// counters grow monotonically, so fullness is wr-rd and only indexing wraps;
// the counters are wider than any practical buffer size.
type Fifo struct {
	data []byte
	size uint64
	rd   uint64
	wr   uint64
}

// Init binds the ring to buf. It returns false for an empty buffer.
func (f *Fifo) Init(buf []byte) bool {
	if f == nil || len(buf) == 0 {
		return false
	}
	f.data = buf
	f.size = uint64(len(buf))
	f.rd = 0
	f.wr = 0
	return true
}

// Bytes returns the byte count available for reading.
func (f *Fifo) Bytes() int {
	if f == nil {
		return 0
	}
	return int(f.wr - f.rd)
}

// Space returns the byte count available for writing.
func (f *Fifo) Space() int {
	if f == nil {
		return 0
	}
	return int(f.size - (f.wr - f.rd))
}

// Full reports whether the ring is full.
func (f *Fifo) Full() bool {
	return f != nil && f.wr-f.rd >= f.size
}

// Put copies up to len(data) bytes into the ring and returns the count
// written, limited by the free space.
func (f *Fifo) Put(data []byte) int {
	if f == nil || len(data) == 0 {
		return 0
	}
	cs := EnterCritical()
	n := uint64(f.Space())
	if n > uint64(len(data)) {
		n = uint64(len(data))
	}
	offset := f.wr % f.size
	tail := f.size - offset
	if tail >= n {
		copy(f.data[offset:], data[:n])
	} else {
		copy(f.data[offset:], data[:tail])
		copy(f.data, data[tail:n])
	}
	f.wr += n
	ExitCritical(cs)
	return int(n)
}

// peek copies up to len(data) bytes without advancing the read counter.
// Caller holds the critical section.
func (f *Fifo) peek(data []byte) int {
	n := uint64(f.Bytes())
	if n > uint64(len(data)) {
		n = uint64(len(data))
	}
	offset := f.rd % f.size
	tail := f.size - offset
	if tail >= n {
		copy(data, f.data[offset:offset+n])
	} else {
		copy(data, f.data[offset:])
		copy(data[tail:], f.data[:n-tail])
	}
	return int(n)
}

// Get copies up to len(data) bytes out of the ring, consuming them.
func (f *Fifo) Get(data []byte) int {
	if f == nil || len(data) == 0 {
		return 0
	}
	cs := EnterCritical()
	n := f.peek(data)
	f.rd += uint64(n)
	ExitCritical(cs)
	return n
}

// Peek copies up to len(data) bytes out of the ring without consuming them.
func (f *Fifo) Peek(data []byte) int {
	if f == nil || len(data) == 0 {
		return 0
	}
	cs := EnterCritical()
	n := f.peek(data)
	ExitCritical(cs)
	return n
}

// SkipBytes discards up to size bytes from the read side.
func (f *Fifo) SkipBytes(size int) {
	if f == nil || size <= 0 {
		return
	}
	cs := EnterCritical()
	n := f.Bytes()
	if n > size {
		n = size
	}
	f.rd += uint64(n)
	ExitCritical(cs)
}

// Reset discards all buffered bytes.
func (f *Fifo) Reset() {
	if f == nil {
		return
	}
	cs := EnterCritical()
	f.rd = 0
	f.wr = 0
	ExitCritical(cs)
}

// Search scans forward from the read position for b. On a match the read
// counter lands on the match (keep) or one past it; with no match all
// buffered bytes are consumed. The caller synchronises against the producer.
func (f *Fifo) Search(b byte, keep bool) bool {
	if f == nil {
		return false
	}
	pos := f.rd % f.size
	wr := f.wr
	for n := f.rd; n < wr; n++ {
		ch := f.data[pos]
		pos++
		if ch == b {
			if keep {
				f.rd = n
			} else {
				f.rd = n + 1
			}
			return true
		}
		if pos == f.size {
			pos = 0
		}
	}
	f.rd = wr
	return false
}
