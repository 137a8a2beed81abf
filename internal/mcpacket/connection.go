package mcpacket

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"time"

	"mcwire/internal/buffer"
	"mcwire/internal/wire"
)

// Connection owns one TCP stream in non-blocking mode, the connection's
// (state, bound) pair, and the buffer.ReadBuffer that frames accumulate
// in. bound names the direction this side RECEIVES: a server connection
// receives Server-bound packets and sends Client-bound ones; a probe
// connection (NewProbeConnection) is the mirror image.
type Connection struct {
	conn  net.Conn
	state State
	bound Bound
	buf   *buffer.ReadBuffer
}

// NewConnection wraps an accepted net.Conn for server-side use: it
// receives Server-bound packets and sends Client-bound ones. The
// connection starts in Handshake state, as every protocol session does.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{conn: conn, state: StateHandshake, bound: BoundServer, buf: buffer.New()}
}

// NewProbeConnection wraps a dialed net.Conn for client-side use: it
// receives Client-bound packets and sends Server-bound ones — the mirror
// image of NewConnection, for a probe speaking the protocol from the
// other end.
func NewProbeConnection(conn net.Conn) *Connection {
	return &Connection{conn: conn, state: StateHandshake, bound: BoundClient, buf: buffer.New()}
}

func (c *Connection) State() State { return c.state }
func (c *Connection) Bound() Bound { return c.bound }

// Close releases the underlying stream.
func (c *Connection) Close() error { return c.conn.Close() }

func isWouldBlock(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// drain attempts a single best-effort read from the stream into the read
// buffer. A would-block is the expected, non-terminal outcome — the Go
// substitute for O_NONBLOCK is a read deadline one millisecond ahead:
// bytes already readable are returned at once, and a socket with nothing
// to read yields an os.ErrDeadlineExceeded that satisfies
// net.Error.Timeout() once that millisecond has passed. (A deadline of
// time.Now() would already be expired when Read starts, so Read would
// fail without ever reading.)
func (c *Connection) drain() error {
	if err := c.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return err
	}
	var tmp [4096]byte
	n, err := c.conn.Read(tmp[:])
	if clearErr := c.conn.SetReadDeadline(time.Time{}); clearErr != nil && err == nil {
		err = clearErr
	}
	if n > 0 {
		c.buf.Append(tmp[:n])
	}
	if err != nil {
		if isWouldBlock(err) {
			return nil
		}
		return err
	}
	return nil
}

// parseOne attempts to frame and decode exactly one packet from the
// current cursor position, per spec.md §4.4's numbered framing steps.
func (c *Connection) parseOne() (Packet, error) {
	size, _, err := wire.ReadVarInt(c.buf)
	if err != nil {
		return nil, err
	}
	if size < 0 || c.buf.Remaining() < int(size) {
		return nil, io.ErrUnexpectedEOF
	}
	id, idlen, err := wire.ReadVarInt(c.buf)
	if err != nil {
		return nil, err
	}
	entry, ok := lookupDecode(c.state, c.bound, id)
	if !ok {
		return nil, wire.ErrInvalidData
	}
	payloadLen := int(size) - idlen
	if payloadLen < 0 {
		return nil, wire.ErrInvalidData
	}
	return entry.Decode(c.buf, payloadLen)
}

// Recv drains the stream, then repeatedly parses packets until a short
// read or error stops the sweep. It waits at most drain's one-millisecond
// read deadline.
func (c *Connection) Recv() ([]Packet, error) {
	if err := c.drain(); err != nil {
		return nil, err
	}

	var packets []Packet
	for {
		p, err := c.parseOne()
		if err != nil {
			c.buf.Rewind()
			if err == io.ErrUnexpectedEOF {
				return packets, nil
			}
			return packets, err
		}
		c.buf.Commit()
		if st, ok := p.(stateTransition); ok {
			if next, valid := st.NextState(); valid {
				c.state = next
			}
		}
		packets = append(packets, p)
	}
}

// Send encodes and writes each packet in order, applying any declared
// next_state transition before the next packet in the batch is encoded.
func (c *Connection) Send(packets ...Packet) error {
	for _, p := range packets {
		entry, ok := lookupEncode(p)
		if !ok {
			return fmt.Errorf("mcpacket: no encoder registered for %T", p)
		}

		var body bytes.Buffer
		if err := wire.WriteVarInt(&body, p.ID()); err != nil {
			return err
		}
		if err := entry.Encode(&body, p); err != nil {
			return err
		}

		var frame bytes.Buffer
		if err := wire.WriteVarInt(&frame, int32(body.Len())); err != nil {
			return err
		}
		if _, err := frame.Write(body.Bytes()); err != nil {
			return err
		}
		if _, err := c.conn.Write(frame.Bytes()); err != nil {
			return err
		}

		if st, ok := p.(stateTransition); ok {
			if next, valid := st.NextState(); valid {
				c.state = next
			}
		}
	}
	return nil
}
