package protocol

import (
	"errors"
	"io"
	"strings"
)

// Common codec errors.
var (
	ErrBufferTooShort = errors.New("protocol: buffer too short")
	ErrValueCount     = errors.New("protocol: wrong number of values for layout")
	ErrValueType      = errors.New("protocol: value type does not match field")
	ErrValueRange     = errors.New("protocol: value out of range for field")
)

// Encoder is a binary encoder that appends fixed-width fields to an internal
// buffer in network byte order.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with capacity for a typical packet.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// NewEncoderWithCap creates an encoder with the given initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{buf: make([]byte, 0, cap)}
}

// Reset resets the encoder to empty, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The returned slice is valid until the
// next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteByte appends a single unsigned byte.
// Note: this intentionally doesn't return error (unlike io.ByteWriter)
// because the buffer is unbounded and can always append.
func (e *Encoder) WriteByte(b byte) {
	e.buf = append(e.buf, b)
}

// WriteSByte appends a single signed byte.
func (e *Encoder) WriteSByte(v int8) {
	e.buf = append(e.buf, byte(v))
}

// WriteShort appends an int16 in big-endian byte order.
func (e *Encoder) WriteShort(v int16) {
	e.buf = append(e.buf, byte(uint16(v)>>8), byte(v))
}

// WriteInt appends an int32 in big-endian byte order.
func (e *Encoder) WriteInt(v int32) {
	u := uint32(v)
	e.buf = append(e.buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteFixedBytes appends b truncated or NUL-padded to exactly width bytes.
func (e *Encoder) WriteFixedBytes(b []byte, width int) {
	if len(b) > width {
		b = b[:width]
	}
	e.buf = append(e.buf, b...)
	for i := len(b); i < width; i++ {
		e.buf = append(e.buf, 0x00)
	}
}

// WriteString appends s as a fixed-width, space-padded field.
func (e *Encoder) WriteString(s string, width int) {
	e.buf = append(e.buf, PackString(s, width)...)
}

// Decoder is a binary decoder that reads fixed-width fields from a buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF reports whether all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// ReadByte reads a single unsigned byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadSByte reads a single signed byte.
func (d *Decoder) ReadSByte() (int8, error) {
	b, err := d.ReadByte()
	return int8(b), err
}

// ReadShort reads a big-endian int16.
func (d *Decoder) ReadShort() (int16, error) {
	if d.pos+2 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := int16(uint16(d.buf[d.pos])<<8 | uint16(d.buf[d.pos+1]))
	d.pos += 2
	return v, nil
}

// ReadInt reads a big-endian int32.
func (d *Decoder) ReadInt() (int32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := int32(uint32(d.buf[d.pos])<<24 |
		uint32(d.buf[d.pos+1])<<16 |
		uint32(d.buf[d.pos+2])<<8 |
		uint32(d.buf[d.pos+3]))
	d.pos += 4
	return v, nil
}

// ReadBytes reads exactly n bytes. The returned slice is a copy.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	copy(b, d.buf[d.pos:d.pos+n])
	d.pos += n
	return b, nil
}

// ReadString reads a fixed-width padded string field of the given width.
func (d *Decoder) ReadString(width int) (string, error) {
	if d.pos+width > len(d.buf) {
		return "", io.ErrUnexpectedEOF
	}
	s := UnpackString(d.buf[d.pos : d.pos+width])
	d.pos += width
	return s, nil
}

// PackString truncates s to width bytes and right-pads it with spaces to
// exactly width bytes.
func PackString(s string, width int) []byte {
	out := make([]byte, width)
	n := copy(out, s)
	for i := n; i < width; i++ {
		out[i] = ' '
	}
	return out
}

// UnpackString decodes a fixed-width padded string field: non-ASCII bytes
// are ignored rather than treated as errors, and surrounding whitespace
// (space and NUL padding included) is trimmed.
func UnpackString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, c := range data {
		if c > 0x7f {
			continue
		}
		sb.WriteByte(c)
	}
	return strings.Trim(sb.String(), " \x00\t\r\n")
}
