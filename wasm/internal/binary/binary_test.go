package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len: got %d, want 2", r.Len())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Overflow(t *testing.T) {
	tests := [][]byte{
		{0xff, 0xff, 0xff, 0xff, 0x1f},
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x00},
	}
	for _, enc := range tests {
		_, err := NewReader(enc).ReadU32()
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("ReadU32(%v): expected ErrOverflow, got %v", enc, err)
		}
	}
}

func TestReaderReadU32Truncated(t *testing.T) {
	_, err := NewReader([]byte{0x80, 0x80}).ReadU32()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadS64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x80, 0x7f}, -128},
		{[]byte{0xc0, 0xbb, 0x78}, -123456},
		{[]byte{0xff, 0x00}, 127},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadS64()
		if err != nil {
			t.Errorf("ReadS64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadName(t *testing.T) {
	r := NewReader([]byte{0x03, 'r', 'u', 'n', 0xAA})
	name, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if name != "run" {
		t.Errorf("ReadName: got %q, want %q", name, "run")
	}
	if r.Len() != 1 {
		t.Errorf("Len: got %d, want 1", r.Len())
	}
}

func TestReaderReadNameInvalidUTF8(t *testing.T) {
	_, err := NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestReaderSubPosition(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0x01, 0x80})
	if _, err := r.ReadBytes(2); err != nil {
		t.Fatal(err)
	}
	sub, err := r.Sub(2)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if sub.Position() != 2 {
		t.Errorf("sub position: got %d, want 2", sub.Position())
	}
	if _, err := sub.ReadByte(); err != nil {
		t.Fatal(err)
	}
	_, err = sub.ReadU32()
	if err == nil {
		t.Fatal("expected truncated LEB128 error")
	}

	var pe *ParseError
	wrapped := sub.WrapError("code", err)
	if !errors.As(wrapped, &pe) {
		t.Fatalf("expected ParseError, got %T", wrapped)
	}
	if pe.Position != 4 || pe.Section != "code" {
		t.Errorf("ParseError: got %+v", pe)
	}
	if r.Len() != 0 {
		t.Errorf("parent not advanced: %d bytes left", r.Len())
	}
}

func TestReaderReadRemaining(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, _ = r.ReadByte()
	if got := r.ReadRemaining(); !bytes.Equal(got, []byte{2, 3}) {
		t.Errorf("ReadRemaining: got %v", got)
	}
	if r.Len() != 0 {
		t.Errorf("Len after ReadRemaining: %d", r.Len())
	}
}

func TestParseErrorNoSection(t *testing.T) {
	err := &ParseError{Err: io.EOF, Position: 7}
	if got := err.Error(); got != "wasm: at position 7: EOF" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestWriterWriteU32(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{0xFFFFFFFF, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		var w Writer
		w.WriteU32(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteU32(%d): got %v, want %v", tt.v, w.Bytes(), tt.want)
		}
	}
}

func TestWriterWriteS64(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-128, []byte{0x80, 0x7f}},
	}
	for _, tt := range tests {
		var w Writer
		w.WriteS64(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteS64(%d): got %v, want %v", tt.v, w.Bytes(), tt.want)
		}
	}
}

func TestWriterWriteSection(t *testing.T) {
	w := NewWriter()
	w.WriteSection(5, []byte{0x01, 0x00, 0x01})
	want := []byte{0x05, 0x03, 0x01, 0x00, 0x01}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("WriteSection: got %v, want %v", w.Bytes(), want)
	}

	w.Reset()
	if w.Len() != 0 {
		t.Errorf("Len after Reset: %d", w.Len())
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32LE(0x6D736100)
	w.WriteName("env")
	w.WriteU64(1 << 40)
	w.WriteS64(-9000)

	r := NewReader(w.Bytes())
	magic, err := r.ReadU32LE()
	if err != nil || magic != 0x6D736100 {
		t.Fatalf("ReadU32LE: %x, %v", magic, err)
	}
	name, err := r.ReadName()
	if err != nil || name != "env" {
		t.Fatalf("ReadName: %q, %v", name, err)
	}
	u, err := r.ReadU64()
	if err != nil || u != 1<<40 {
		t.Fatalf("ReadU64: %d, %v", u, err)
	}
	s, err := r.ReadS64()
	if err != nil || s != -9000 {
		t.Fatalf("ReadS64: %d, %v", s, err)
	}
	if r.Len() != 0 {
		t.Errorf("trailing bytes: %d", r.Len())
	}
}
