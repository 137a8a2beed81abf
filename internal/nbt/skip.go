package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Skip reads and discards exactly one complete named top-level NBT value
// from r — tag id, name, and payload — without materializing it into a Go
// value. It is the read-side counterpart a probe needs: the probe client
// has no use for the decoded dimension codec or dimension compounds it
// receives, only for the scalar fields around them, so walking past their
// bytes structurally is enough.
func Skip(r io.Reader) error {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return err
	}
	tag := TagID(tagByte[0])
	if tag == TagEnd {
		return nil
	}
	if _, err := skipNBTString(r); err != nil {
		return err
	}
	return skipPayload(r, tag)
}

func skipNBTString(r io.Reader) (int, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, err
	}
	n := int(binary.BigEndian.Uint16(lenBuf[:]))
	if n == 0 {
		return 0, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return n, nil
}

func skipN(r io.Reader, n int) error {
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return err
}

func skipPayload(r io.Reader, tag TagID) error {
	switch tag {
	case TagByte:
		return skipN(r, 1)
	case TagShort:
		return skipN(r, 2)
	case TagInt:
		return skipN(r, 4)
	case TagLong:
		return skipN(r, 8)
	case TagFloat:
		return skipN(r, 4)
	case TagDouble:
		return skipN(r, 8)
	case TagString:
		_, err := skipNBTString(r)
		return err
	case TagByteArray:
		n, err := readArrayLength(r)
		if err != nil {
			return err
		}
		return skipN(r, n)
	case TagIntArray:
		n, err := readArrayLength(r)
		if err != nil {
			return err
		}
		return skipN(r, n*4)
	case TagLongArray:
		n, err := readArrayLength(r)
		if err != nil {
			return err
		}
		return skipN(r, n*8)
	case TagList:
		var elemTagByte [1]byte
		if _, err := io.ReadFull(r, elemTagByte[:]); err != nil {
			return err
		}
		elemTag := TagID(elemTagByte[0])
		n, err := readArrayLength(r)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := skipPayload(r, elemTag); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			var childTagByte [1]byte
			if _, err := io.ReadFull(r, childTagByte[:]); err != nil {
				return err
			}
			childTag := TagID(childTagByte[0])
			if childTag == TagEnd {
				return nil
			}
			if _, err := skipNBTString(r); err != nil {
				return err
			}
			if err := skipPayload(r, childTag); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("nbt: cannot skip unknown tag %d", tag)
	}
}

func readArrayLength(r io.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(buf[:]))), nil
}
