package protocol

// InputBuffer is a source of received link bytes
type InputBuffer interface {
	// Data returns the bytes not yet consumed
	Data() []byte

	// Available returns len(Data())
	Available() int

	// Pop discards n bytes from the front
	Pop(n int)
}

// OutputBuffer accumulates bytes to transmit
type OutputBuffer interface {
	Output(data []byte)

	// CurPosition returns the current write offset
	CurPosition() int

	// Update overwrites the byte at pos
	Update(pos int, val byte)

	// DataSince returns the bytes written from pos onwards
	DataSince(pos int) []byte
}

// SliceInputBuffer is an InputBuffer over a fixed slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	s.data = s.data[min(n, len(s.data)):]
}

// ScratchOutput is an OutputBuffer backed by a fixed array.
// Writes past the end are dropped.
type ScratchOutput struct {
	buf [OutputBufferSize]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Free returns the remaining capacity
func (s *ScratchOutput) Free() int {
	return len(s.buf) - s.pos
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a byte ring used between the USB/serial driver and the transport.
// One slot is kept empty to tell full from empty.
type FifoBuffer struct {
	buf         []byte
	read, write int
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write stores as much of data as fits and returns the count stored
func (f *FifoBuffer) Write(data []byte) int {
	n := 0
	for _, b := range data {
		next := (f.write + 1) % len(f.buf)
		if next == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = next
		n++
	}
	return n
}

// Read moves up to len(data) bytes out of the ring
func (f *FifoBuffer) Read(data []byte) int {
	n := 0
	for n < len(data) && f.read != f.write {
		data[n] = f.buf[f.read]
		f.read = (f.read + 1) % len(f.buf)
		n++
	}
	return n
}

func (f *FifoBuffer) Available() int {
	return (f.write - f.read + len(f.buf)) % len(f.buf)
}

func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available() - 1
}

// Data returns the buffered bytes, copied into one slice when the ring wraps
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	out := make([]byte, 0, f.Available())
	out = append(out, f.buf[f.read:]...)
	return append(out, f.buf[:f.write]...)
}

func (f *FifoBuffer) Pop(n int) {
	n = min(n, f.Available())
	f.read = (f.read + n) % len(f.buf)
}

func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

func (f *FifoBuffer) Reset() {
	f.read, f.write = 0, 0
}
