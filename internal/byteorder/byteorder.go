package byteorder

import (
	"encoding/binary"
	"errors"
	"math"
)

// Everything on the wire is little endian: header fields and every fixed-width
// payload field.

var ErrTruncated = errors.New("byteorder: truncated input")

// Reader is a read cursor over a byte slice. Reads never go past the end of the
// slice; a short read returns ErrTruncated and leaves the cursor where it was.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte, pos int) *Reader {
	return &Reader{buf: buf, pos: pos}
}

func (r *Reader) Pos() int       { return r.pos }
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Next returns the next n bytes and advances past them.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || r.pos < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || r.pos < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	return r.buf[r.pos : r.pos+n], nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Float32() (float32, error) {
	n, err := r.Uint32()
	return math.Float32frombits(n), err
}

func (r *Reader) Float64() (float64, error) {
	n, err := r.Uint64()
	return math.Float64frombits(n), err
}

// Writer is a write cursor over a preallocated byte slice. The slice must be
// sized up front (see compiler.Codec.Measure); writing past its end panics.
type Writer struct {
	buf []byte
	pos int
}

func NewWriter(buf []byte, pos int) *Writer {
	return &Writer{buf: buf, pos: pos}
}

func (w *Writer) Pos() int      { return w.pos }
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Write(b []byte) {
	w.pos += copy(w.buf[w.pos:w.pos+len(b)], b)
}

func (w *Writer) Uint8(v uint8) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *Writer) Uint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// PutUint16 and Uint16 operate on a fixed position, used for header fields that
// are patched after the payload is written.
func PutUint16(buf []byte, v uint16) {
	binary.LittleEndian.PutUint16(buf, v)
}

func Uint16(buf []byte) uint16 {
	return binary.LittleEndian.Uint16(buf)
}
