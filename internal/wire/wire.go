// Package wire implements the Minecraft Java Edition wire primitives: VarInt
// and VarLong (LEB128 with sign reinterpretation), big-endian fixed-width
// integers and floats, and VarInt-length-prefixed UTF-8 strings.
//
// Every decoder here is stateless over an io.Reader and reports exactly the
// UnexpectedEOF/InvalidData distinction the framer depends on: a short read
// mid-primitive is UnexpectedEOF (recoverable — wait for more bytes), a
// malformed encoding is InvalidData (not recoverable — the connection is
// bad).
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"
)

// ErrInvalidData reports a protocol violation: an overlong VarInt/VarLong
// encoding or a string that isn't valid UTF-8.
var ErrInvalidData = errors.New("wire: invalid data")

// maxVarIntBytes and maxVarLongBytes are the encoded-length caps from
// spec.md §4.1: ⌈(N+1+⌊(N+1)/8⌋)/8⌉ bytes for an N-byte-wide target, i.e. 5
// bytes for an i32 and 10 bytes for an i64.
const (
	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

// ReadVarInt decodes a VarInt from r, returning the value and the number of
// bytes consumed.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var n int
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, n, io.ErrUnexpectedEOF
		}
		n++
		result |= uint32(b[0]&0x7f) << (7 * (n - 1))
		if n > maxVarIntBytes {
			return 0, n, ErrInvalidData
		}
		if b[0]&0x80 == 0 {
			return int32(result), n, nil
		}
	}
}

// ReadVarLong decodes a VarLong from r, returning the value and the number
// of bytes consumed.
func ReadVarLong(r io.Reader) (int64, int, error) {
	var result uint64
	var n int
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, n, io.ErrUnexpectedEOF
		}
		n++
		result |= uint64(b[0]&0x7f) << (7 * (n - 1))
		if n > maxVarLongBytes {
			return 0, n, ErrInvalidData
		}
		if b[0]&0x80 == 0 {
			return int64(result), n, nil
		}
	}
}

// VarIntSize returns the number of bytes WriteVarInt would emit for v.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// VarLongSize returns the number of bytes WriteVarLong would emit for v.
func VarLongSize(v int64) int {
	u := uint64(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// WriteVarInt encodes v as a VarInt, writing the minimum number of bytes
// that preserves all non-sign-extension bits.
func WriteVarInt(w io.Writer, v int32) error {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			if _, err := w.Write([]byte{b | 0x80}); err != nil {
				return err
			}
		} else {
			_, err := w.Write([]byte{b})
			return err
		}
	}
}

// WriteVarLong encodes v as a VarLong.
func WriteVarLong(w io.Writer, v int64) error {
	u := uint64(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			if _, err := w.Write([]byte{b | 0x80}); err != nil {
				return err
			}
		} else {
			_, err := w.Write([]byte{b})
			return err
		}
	}
}

// ReadBool reads a one-byte boolean; any nonzero byte is true.
func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadUint8(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// WriteBool writes a one-byte boolean (1 for true, 0 for false).
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteUint8(w, 1)
	}
	return WriteUint8(w, 0)
}

func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// ReadInt8 reads a big-endian signed 8-bit integer.
func ReadInt8(r io.Reader) (int8, error) {
	b, err := readFull(r, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func ReadUint8(r io.Reader) (uint8, error) {
	b, err := readFull(r, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func ReadInt16(r io.Reader) (int16, error) {
	b, err := readFull(r, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// ReadUint16 reads a big-endian unsigned 16-bit integer.
func ReadUint16(r io.Reader) (uint16, error) {
	b, err := readFull(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	b, err := readFull(r, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadUint32 reads a big-endian unsigned 32-bit integer.
func ReadUint32(r io.Reader) (uint32, error) {
	b, err := readFull(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func ReadInt64(r io.Reader) (int64, error) {
	b, err := readFull(r, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadUint64 reads a big-endian unsigned 64-bit integer.
func ReadUint64(r io.Reader) (uint64, error) {
	b, err := readFull(r, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadUint128 reads a big-endian unsigned 128-bit integer, returned as the
// high and low 64-bit halves (Go has no native 128-bit integer type; this
// is used only for UUID fields).
func ReadUint128(r io.Reader) (hi, lo uint64, err error) {
	b, err := readFull(r, 16)
	if err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:]), nil
}

// ReadFloat32 reads a big-endian IEEE-754 32-bit float.
func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a big-endian IEEE-754 64-bit float.
func ReadFloat64(r io.Reader) (float64, error) {
	v, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadString reads a VarInt byte-length prefix followed by that many UTF-8
// bytes, returning the decoded string and the total bytes consumed
// (prefix + payload).
func ReadString(r io.Reader) (string, int, error) {
	size, n, err := ReadVarInt(r)
	if err != nil {
		return "", n, err
	}
	if size < 0 {
		return "", n, ErrInvalidData
	}
	buf, err := readFull(r, int(size))
	if err != nil {
		return "", n, err
	}
	n += int(size)
	if !utf8.Valid(buf) {
		return "", n, ErrInvalidData
	}
	return string(buf), n, nil
}

func writeFull(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// WriteInt8 writes a signed 8-bit integer.
func WriteInt8(w io.Writer, v int8) error { return writeFull(w, []byte{byte(v)}) }

// WriteUint8 writes an unsigned 8-bit integer.
func WriteUint8(w io.Writer, v uint8) error { return writeFull(w, []byte{v}) }

// WriteInt16 writes a big-endian signed 16-bit integer.
func WriteInt16(w io.Writer, v int16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return writeFull(w, b[:])
}

// WriteUint16 writes a big-endian unsigned 16-bit integer.
func WriteUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return writeFull(w, b[:])
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func WriteInt32(w io.Writer, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return writeFull(w, b[:])
}

// WriteUint32 writes a big-endian unsigned 32-bit integer.
func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return writeFull(w, b[:])
}

// WriteInt64 writes a big-endian signed 64-bit integer.
func WriteInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return writeFull(w, b[:])
}

// WriteUint64 writes a big-endian unsigned 64-bit integer.
func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return writeFull(w, b[:])
}

// WriteUint128 writes a big-endian unsigned 128-bit integer from its high
// and low 64-bit halves.
func WriteUint128(w io.Writer, hi, lo uint64) error {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], hi)
	binary.BigEndian.PutUint64(b[8:], lo)
	return writeFull(w, b[:])
}

// WriteFloat32 writes a big-endian IEEE-754 32-bit float.
func WriteFloat32(w io.Writer, v float32) error {
	return WriteUint32(w, math.Float32bits(v))
}

// WriteFloat64 writes a big-endian IEEE-754 64-bit float.
func WriteFloat64(w io.Writer, v float64) error {
	return WriteUint64(w, math.Float64bits(v))
}

// WriteString writes a VarInt byte-length prefix followed by the UTF-8
// bytes of v.
func WriteString(w io.Writer, v string) error {
	if err := WriteVarInt(w, int32(len(v))); err != nil {
		return err
	}
	return writeFull(w, []byte(v))
}
