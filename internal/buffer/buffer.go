// Package buffer implements the tentative-cursor read buffer the framer
// drains socket bytes into. It is the Go-idiomatic replacement for the
// source's repeated slice-clone pattern (spec.md §4.2/§9): appends grow a
// plain byte slice, Commit drops the consumed prefix with a single copy,
// and Rewind only resets the cursor without touching the data.
package buffer

import "io"

// ReadBuffer is an ordered byte sequence with an implicit head cursor.
// Appends always add to the end; reads advance the cursor without
// mutating the underlying data until Commit or Rewind decide its fate.
type ReadBuffer struct {
	data   []byte
	cursor int
}

// New returns an empty ReadBuffer.
func New() *ReadBuffer {
	return &ReadBuffer{}
}

// Append adds bytes to the end of the buffer. It never interacts with the
// cursor.
func (b *ReadBuffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Remaining reports how many unread bytes sit past the cursor.
func (b *ReadBuffer) Remaining() int {
	return len(b.data) - b.cursor
}

// Read fills dst with as many bytes as are available starting at the
// cursor, advancing the cursor by that amount. It returns io.EOF only when
// nothing at all remains; a partial read returns a nil error, matching the
// standard io.Reader contract so fixed-width wire reads can be wrapped in
// io.ReadFull.
func (b *ReadBuffer) Read(dst []byte) (int, error) {
	if b.Remaining() == 0 && len(dst) > 0 {
		return 0, io.EOF
	}
	n := copy(dst, b.data[b.cursor:])
	b.cursor += n
	return n, nil
}

// Commit drops the bytes consumed so far — [0, cursor) — and resets the
// cursor to 0. Called once a full packet has been parsed successfully.
func (b *ReadBuffer) Commit() {
	if b.cursor == 0 {
		return
	}
	n := copy(b.data, b.data[b.cursor:])
	b.data = b.data[:n]
	b.cursor = 0
}

// Rewind resets the cursor to 0 without discarding any data, so the next
// read sees the same bytes again. Used after a short read: the partially
// consumed packet must be re-parsed in full once more data arrives.
func (b *ReadBuffer) Rewind() {
	b.cursor = 0
}
