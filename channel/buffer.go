package channel

import "github.com/valyala/bytebufferpool"

// mergeBuffer coalesces small pipelined command payloads into one
// syscall-sized write, per spec.md §4.3 steps 2-4. capacity is the
// configured send-buffer size (default 64KiB); once append would exceed
// it, the caller must flush first.
type mergeBuffer struct {
	capacity int
	buf      *bytebufferpool.ByteBuffer
}

func newMergeBuffer(capacity int) *mergeBuffer {
	return &mergeBuffer{capacity: capacity, buf: bytebufferpool.Get()}
}

// fits reports whether payload can be appended without exceeding
// capacity.
func (m *mergeBuffer) fits(payload []byte) bool {
	return m.buf.Len()+len(payload) <= m.capacity
}

func (m *mergeBuffer) append(payload []byte) {
	m.buf.Write(payload)
}

func (m *mergeBuffer) empty() bool {
	return m.buf.Len() == 0
}

func (m *mergeBuffer) bytes() []byte {
	return m.buf.B
}

func (m *mergeBuffer) reset() {
	m.buf.Reset()
}
