package binary

import (
	"encoding/binary"
	"math"
)

// Writer accumulates a WebAssembly binary encoding.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes writes a byte slice verbatim.
func (w *Writer) WriteBytes(data []byte) {
	w.buf = append(w.buf, data...)
}

// WriteU32 writes an unsigned LEB128 encoded uint32.
func (w *Writer) WriteU32(v uint32) {
	w.WriteU64(uint64(v))
}

// WriteU64 writes an unsigned LEB128 encoded uint64.
func (w *Writer) WriteU64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if v == 0 {
			return
		}
	}
}

// WriteS64 writes a signed LEB128 encoded int64.
func (w *Writer) WriteS64(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf = append(w.buf, b)
			return
		}
		w.buf = append(w.buf, b|0x80)
	}
}

// WriteName writes a length-prefixed UTF-8 name.
func (w *Writer) WriteName(s string) {
	w.WriteLen(len(s))
	w.buf = append(w.buf, s...)
}

// WriteLen writes a vector or payload length.
// Lengths beyond the format's u32 range are an encoder bug.
func (w *Writer) WriteLen(n int) {
	if n < 0 || n > math.MaxUint32 {
		panic("binary: length out of u32 range")
	}
	w.WriteU32(uint32(n))
}

// WriteU32LE writes a little-endian uint32 (fixed 4 bytes).
func (w *Writer) WriteU32LE(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteSection writes a section header (id and payload size) followed by the payload.
func (w *Writer) WriteSection(id byte, payload []byte) {
	w.Byte(id)
	w.WriteLen(len(payload))
	w.WriteBytes(payload)
}

// Reset discards all written bytes while keeping the allocated buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}
