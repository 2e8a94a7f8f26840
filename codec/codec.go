// Package codec implements the deterministic binary encoding used for every
// persisted or gossiped type in the node: fixed-width little-endian
// integers, length-prefixed sequences, and single-byte discriminants ahead
// of tagged-union payloads. Struct fields always encode in declaration
// order, with no padding or alignment bytes, so the same logical value
// produces the same byte sequence on every platform.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortBuffer is returned when a decode reads past the end of the input.
var ErrShortBuffer = errors.New("codec: unexpected end of input")

// Encodable types know how to append their canonical encoding to a buffer.
type Encodable interface {
	Encode(e *Encoder)
}

// Decodable types know how to populate themselves from a Decoder.
type Decodable interface {
	Decode(d *Decoder) error
}

// Encoder accumulates the canonical byte representation of a value.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with a pre-sized backing buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// PutBytes appends raw bytes with no length prefix.
func (e *Encoder) PutBytes(b []byte) { e.buf = append(e.buf, b...) }

// PutByte appends a single byte, typically a tagged-union discriminant.
func (e *Encoder) PutByte(b byte) { e.buf = append(e.buf, b) }

// PutUint32 appends a u32 in little-endian order.
func (e *Encoder) PutUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// PutUint64 appends a u64 in little-endian order.
func (e *Encoder) PutUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// PutBytesWithLen appends a u32 length prefix followed by the raw bytes.
func (e *Encoder) PutBytesWithLen(b []byte) {
	e.PutUint32(uint32(len(b)))
	e.PutBytes(b)
}

// PutString appends a length-prefixed UTF-8 string.
func (e *Encoder) PutString(s string) {
	e.PutBytesWithLen([]byte(s))
}

// Decoder reads the canonical encoding back out of a byte slice.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps b for sequential decoding.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining reports how many bytes are left to read.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrShortBuffer
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

// Byte reads a single byte.
func (d *Decoder) Byte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bytes reads exactly n raw bytes.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Uint32 reads a little-endian u32.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian u64.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// BytesWithLen reads a u32 length prefix followed by that many raw bytes.
func (d *Decoder) BytesWithLen() ([]byte, error) {
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	return d.Bytes(int(n))
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	b, err := d.BytesWithLen()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode returns the canonical encoding of v.
func Encode(v Encodable) []byte {
	e := NewEncoder()
	v.Encode(e)
	return e.Bytes()
}

// Decode populates v from b, returning an error on truncated or malformed
// input. Decoding never reads past len(b).
func Decode(b []byte, v Decodable) error {
	d := NewDecoder(b)
	return v.Decode(d)
}

// WriteTo writes v's canonical encoding to w.
func WriteTo(w io.Writer, v Encodable) (int, error) {
	return w.Write(Encode(v))
}
