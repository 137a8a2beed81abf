// Package nbt implements the Named Binary Tag encoder used for the Play
// state's compound packet payloads (JoinGame's dimension codec and
// dimension entries). It is a type-directed encoder: a Go value is walked
// with reflection and turned into NBT's self-describing tag stream, with
// the array-tag optimization (ByteArray/IntArray/LongArray in place of a
// generic List) applied wherever a homogeneous sequence's first element
// resolves to Byte, Int, or Long.
//
// The four-way pending-header action below — None, Named, List,
// DynamicList — is the same small state machine spec.md §4.3/§9 describes,
// modeled after the WriteAction enum in the original Rust NBT serializer:
// a closed sum type rather than an interface hierarchy, since there is
// nothing virtual about it — exactly one of the four is ever active.
package nbt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
)

// TagID identifies an NBT tag's payload type.
type TagID byte

const (
	TagEnd       TagID = 0
	TagByte      TagID = 1
	TagShort     TagID = 2
	TagInt       TagID = 3
	TagLong      TagID = 4
	TagFloat     TagID = 5
	TagDouble    TagID = 6
	TagByteArray TagID = 7
	TagString    TagID = 8
	TagList      TagID = 9
	TagCompound  TagID = 10
	TagIntArray  TagID = 11
	TagLongArray TagID = 12
)

// ErrListElementsDiffer is returned when a homogeneous sequence's elements
// do not all resolve to the same NBT tag type.
var ErrListElementsDiffer = errors.New("nbt: list elements differ")

// ErrUnsupportedValue reports a Go value with no NBT representation —
// the encoder's Custom(string) error taxonomy entry from spec.md §7.
type ErrUnsupportedValue struct {
	Kind reflect.Kind
}

func (e *ErrUnsupportedValue) Error() string {
	return fmt.Sprintf("nbt: unsupported value of kind %s", e.Kind)
}

type actionKind int

const (
	actionNone actionKind = iota
	actionNamed
	actionList
	actionDynamicList
)

// listState is shared (by pointer) across every element of one open list,
// so the elemTag discovered on the first element survives the encoder
// overwriting e.action to actionNamed/actionNone while walking into that
// element's own fields.
type listState struct {
	named   bool
	name    string
	elemTag TagID // TagEnd until the first element sets it
	length  uint32
	side    *bytes.Buffer // non-nil only for a DynamicList: accumulates element payload bytes until Close

	// noElision is set on a list nested inside another list (a
	// List-of-Lists element). The enclosing list already announced its
	// element type as the single generic TagList, so every element must
	// carry its own explicit element-type byte — the ByteArray/IntArray/
	// LongArray shorthand that elides it is only valid one level up,
	// directly under a named struct/map field.
	noElision bool
}

type action struct {
	kind actionKind
	name string // actionNamed
	list *listState
}

// Encoder is a type-directed NBT encoder holding one pending header action
// at a time.
type Encoder struct {
	w      io.Writer
	action action
}

// Encode writes v as a named root Compound to w — the entry point every
// packet that carries an NBT payload uses.
func Encode(w io.Writer, name string, v any) error {
	e := &Encoder{w: w, action: action{kind: actionNamed, name: name}}
	return e.encodeValue(reflect.ValueOf(v))
}

// writeRaw always writes directly to the underlying writer, bypassing any
// open DynamicList's side buffer. Structural bytes (tag ids, names,
// lengths, the terminal End marker) are always "raw" — only a primitive's
// payload value is subject to DynamicList redirection.
func (e *Encoder) writeRaw(p []byte) error {
	_, err := e.w.Write(p)
	return err
}

// write emits a primitive's payload bytes, redirecting into the innermost
// open DynamicList's side buffer if one is active.
func (e *Encoder) write(p []byte) error {
	if e.action.kind == actionDynamicList {
		_, err := e.action.list.side.Write(p)
		return err
	}
	return e.writeRaw(p)
}

func (e *Encoder) writeNBTString(s string) error {
	b := []byte(s)
	if len(b) > 0x7fff {
		return fmt.Errorf("nbt: name %q exceeds i16 length", s)
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(b)))
	if err := e.writeRaw(lenBuf[:]); err != nil {
		return err
	}
	return e.writeRaw(b)
}

// arrayTagFor returns the optimized list-level tag for a homogeneous
// sequence whose elements resolve to elemTag, and whether the per-element
// tag byte is elided (true for the three array tags; false for a plain
// List, which still carries an explicit element-type byte).
func arrayTagFor(elemTag TagID) (headerTag TagID, elideElemByte bool) {
	switch elemTag {
	case TagByte:
		return TagByteArray, true
	case TagInt:
		return TagIntArray, true
	case TagLong:
		return TagLongArray, true
	default:
		return TagList, false
	}
}

// writeHeader writes the header bytes (if any) that precede a primitive's
// payload, per the encoder's currently pending action.
func (e *Encoder) writeHeader(tag TagID) error {
	switch e.action.kind {
	case actionNone:
		return nil

	case actionNamed:
		name := e.action.name
		e.action = action{kind: actionNone}
		if err := e.writeRaw([]byte{byte(tag)}); err != nil {
			return err
		}
		return e.writeNBTString(name)

	case actionList:
		st := e.action.list
		if st.elemTag == TagEnd {
			st.elemTag = tag
			headerTag, elide := arrayTagFor(tag)
			if st.noElision {
				headerTag, elide = TagList, false
			}
			if st.named {
				if err := e.writeRaw([]byte{byte(headerTag)}); err != nil {
					return err
				}
				if err := e.writeNBTString(st.name); err != nil {
					return err
				}
			}
			if !elide {
				if err := e.writeRaw([]byte{byte(tag)}); err != nil {
					return err
				}
			}
			var lenBuf [4]byte
			binary.BigEndian.PutUint32(lenBuf[:], st.length)
			return e.writeRaw(lenBuf[:])
		}
		if st.elemTag != tag {
			return ErrListElementsDiffer
		}
		return nil

	case actionDynamicList:
		st := e.action.list
		if st.elemTag == TagEnd {
			st.elemTag = tag
			return nil
		}
		if st.elemTag != tag {
			return ErrListElementsDiffer
		}
		return nil

	default:
		return nil
	}
}

func (e *Encoder) encodeValue(v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return &ErrUnsupportedValue{Kind: reflect.Pointer}
		}
		return e.encodeValue(v.Elem())
	}
	if v.Kind() == reflect.Interface {
		return e.encodeValue(v.Elem())
	}

	switch v.Kind() {
	case reflect.Bool:
		if err := e.writeHeader(TagByte); err != nil {
			return err
		}
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		return e.write([]byte{b})

	case reflect.Int8:
		if err := e.writeHeader(TagByte); err != nil {
			return err
		}
		return e.write([]byte{byte(v.Int())})

	case reflect.Int16:
		if err := e.writeHeader(TagShort); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v.Int()))
		return e.write(b[:])

	case reflect.Int32:
		if err := e.writeHeader(TagInt); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.Int()))
		return e.write(b[:])

	case reflect.Int64, reflect.Int:
		if err := e.writeHeader(TagLong); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v.Int()))
		return e.write(b[:])

	case reflect.Uint8:
		if err := e.writeHeader(TagByte); err != nil {
			return err
		}
		return e.write([]byte{byte(v.Uint())})

	case reflect.Uint16:
		if err := e.writeHeader(TagShort); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v.Uint()))
		return e.write(b[:])

	case reflect.Uint32:
		if err := e.writeHeader(TagInt); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.Uint()))
		return e.write(b[:])

	case reflect.Uint64, reflect.Uint:
		if err := e.writeHeader(TagLong); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v.Uint())
		return e.write(b[:])

	case reflect.Float32:
		if err := e.writeHeader(TagFloat); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v.Float())))
		return e.write(b[:])

	case reflect.Float64:
		if err := e.writeHeader(TagDouble); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		return e.write(b[:])

	case reflect.String:
		if err := e.writeHeader(TagString); err != nil {
			return err
		}
		s := v.String()
		var lenBuf [2]byte
		if len(s) > 0x7fff {
			return fmt.Errorf("nbt: string value exceeds i16 length")
		}
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
		if err := e.write(lenBuf[:]); err != nil {
			return err
		}
		return e.write([]byte(s))

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return e.encodeByteArray(v)
		}
		return e.encodeSeq(v)

	case reflect.Map:
		return e.encodeMap(v)

	case reflect.Struct:
		return e.encodeStruct(v)

	default:
		return &ErrUnsupportedValue{Kind: v.Kind()}
	}
}

func (e *Encoder) encodeByteArray(v reflect.Value) error {
	if err := e.writeHeader(TagByteArray); err != nil {
		return err
	}
	n := v.Len()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(n))
	if err := e.write(lenBuf[:]); err != nil {
		return err
	}
	buf := make([]byte, n)
	reflect.Copy(reflect.ValueOf(buf), v)
	return e.write(buf)
}

// encodeSeq encodes a slice/array of non-byte elements as a List, applying
// the array-tag optimization when the element type allows it.
func (e *Encoder) encodeSeq(v reflect.Value) error {
	outer := e.action
	noElision := false
	if outer.kind == actionList || outer.kind == actionDynamicList {
		// This sequence is itself an element of an enclosing list — a
		// List-of-Lists — rather than a named struct/map field. Announce
		// it to the enclosing list right now, the same way encodeStruct
		// calls writeHeader(TagCompound) before recursing into fields;
		// everything about this list's own contents is built below.
		if err := e.writeHeader(TagList); err != nil {
			return err
		}
		outer = action{kind: actionNone}
		noElision = true
	}

	st := &listState{length: uint32(v.Len()), noElision: noElision}
	if outer.kind == actionNamed {
		st.named = true
		st.name = outer.name
	}
	for i := 0; i < v.Len(); i++ {
		e.action = action{kind: actionList, list: st}
		if err := e.encodeValue(v.Index(i)); err != nil {
			return err
		}
	}
	if v.Len() == 0 {
		// An empty list still needs its header: TAG_End as the element
		// type and length 0, per the NBT spec's "empty list" convention.
		e.action = action{kind: actionList, list: st}
		return e.writeHeader(TagEnd)
	}
	return nil
}

// EncodeDynamicSeq encodes elems as a List whose length is not known up
// front: element bytes accumulate in a side buffer and the header
// (with the final accumulated length) is emitted only once the sequence
// is exhausted, per spec.md §4.3's DynamicList row. Intended for
// homogeneous primitive sequences built from a channel or iterator rather
// than a pre-sized slice.
func EncodeDynamicSeq(w io.Writer, name string, emit func(yield func(v any) error) error) error {
	e := &Encoder{w: w}
	st := &listState{named: true, name: name, side: &bytes.Buffer{}}
	err := emit(func(v any) error {
		e.action = action{kind: actionDynamicList, list: st}
		if err := e.encodeValue(reflect.ValueOf(v)); err != nil {
			return err
		}
		st.length++
		return nil
	})
	if err != nil {
		return err
	}
	headerTag, elide := arrayTagFor(st.elemTag)
	if st.elemTag == TagEnd {
		headerTag, elide = TagList, false
	}
	if err := e.writeRaw([]byte{byte(headerTag)}); err != nil {
		return err
	}
	if err := e.writeNBTString(st.name); err != nil {
		return err
	}
	if !elide {
		if err := e.writeRaw([]byte{byte(st.elemTag)}); err != nil {
			return err
		}
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], st.length)
	if err := e.writeRaw(lenBuf[:]); err != nil {
		return err
	}
	return e.writeRaw(st.side.Bytes())
}

func (e *Encoder) encodeMap(v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("nbt: map key must serialize to a string, got %s", v.Type().Key())
	}
	if err := e.writeHeader(TagCompound); err != nil {
		return err
	}
	keys := v.MapKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	for _, name := range names {
		e.action = action{kind: actionNamed, name: name}
		if err := e.encodeValue(v.MapIndex(reflect.ValueOf(name))); err != nil {
			return err
		}
	}
	return e.writeRaw([]byte{byte(TagEnd)})
}

func (e *Encoder) encodeStruct(v reflect.Value) error {
	if err := e.writeHeader(TagCompound); err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("nbt"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}
		e.action = action{kind: actionNamed, name: name}
		if err := e.encodeValue(v.Field(i)); err != nil {
			return err
		}
	}
	return e.writeRaw([]byte{byte(TagEnd)})
}
