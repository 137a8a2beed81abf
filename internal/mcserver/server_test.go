package mcserver

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"mcwire/internal/wire"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.TickInterval = 5 * time.Millisecond
	svr := NewServer(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() { errCh <- svr.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for svr.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if svr.Addr() == nil {
		t.Fatal("server never bound a listen address")
	}
	return svr.Addr()
}

func buildFrame(t *testing.T, id int32, payload []byte) []byte {
	t.Helper()
	var body bytes.Buffer
	if err := wire.WriteVarInt(&body, id); err != nil {
		t.Fatalf("WriteVarInt(id) failed: %v", err)
	}
	body.Write(payload)

	var frame bytes.Buffer
	if err := wire.WriteVarInt(&frame, int32(body.Len())); err != nil {
		t.Fatalf("WriteVarInt(size) failed: %v", err)
	}
	frame.Write(body.Bytes())
	return frame.Bytes()
}

func readFrame(t *testing.T, r io.Reader) (id int32, payload []byte) {
	t.Helper()
	size, _, err := wire.ReadVarInt(r)
	if err != nil {
		t.Fatalf("ReadVarInt(size) failed: %v", err)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("reading frame body failed: %v", err)
	}
	br := bytes.NewReader(body)
	id, _, err = wire.ReadVarInt(br)
	if err != nil {
		t.Fatalf("ReadVarInt(id) failed: %v", err)
	}
	rest, _ := io.ReadAll(br)
	return id, rest
}

func handshakePayload(t *testing.T, proto int32, addr string, port uint16, next int32) []byte {
	t.Helper()
	var buf bytes.Buffer
	wire.WriteVarInt(&buf, proto)
	wire.WriteString(&buf, addr)
	wire.WriteUint16(&buf, port)
	wire.WriteVarInt(&buf, next)
	return buf.Bytes()
}

func TestServeStatusRoundTrip(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.Write(buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 1)))
	conn.Write(buildFrame(t, 0, nil)) // StatusRequest

	id, payload := readFrame(t, conn)
	if id != 0 {
		t.Fatalf("got response id %d, want 0 (StatusResponse)", id)
	}
	s, _, err := wire.ReadString(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if !bytes.Contains([]byte(s), []byte(`"protocol":754`)) {
		t.Errorf("status JSON = %q, missing protocol field", s)
	}
}

func TestServeLoginFlow(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.Write(buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 2)))
	var loginPayload bytes.Buffer
	wire.WriteString(&loginPayload, "Alex")
	conn.Write(buildFrame(t, 0, loginPayload.Bytes()))

	id, _ := readFrame(t, conn)
	if id != 2 {
		t.Fatalf("first response id = %d, want 2 (LoginSuccess)", id)
	}
	id, payload := readFrame(t, conn)
	if id != 36 {
		t.Fatalf("second response id = %d, want 36 (JoinGame)", id)
	}
	if !bytes.Contains(payload, []byte("minecraft:overworld")) {
		t.Errorf("JoinGame missing minecraft:overworld")
	}
	id, _ = readFrame(t, conn)
	if id != 52 {
		t.Fatalf("third response id = %d, want 52 (PlayerPositionAndLookS2C)", id)
	}
}

func TestServeUnknownPacketClosesConnection(t *testing.T) {
	addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.Write(buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 2)))
	conn.Write(buildFrame(t, 0xFF, nil))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != io.EOF && err == nil {
		t.Fatalf("expected the connection to be closed after an unknown packet, got err=%v", err)
	}
}

func TestEventListenersRunInRegistrationOrder(t *testing.T) {
	svr := NewServer(DefaultConfig(), nil)
	var order []int
	svr.On(EventPlayerJoined, func(s *Server, payload any) { order = append(order, 1) })
	svr.On(EventPlayerJoined, func(s *Server, payload any) { order = append(order, 2) })

	svr.NewPointOfView("Steve")

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listeners ran out of order: %v", order)
	}
}

func TestTickLoadsChunkForPlayer(t *testing.T) {
	svr := NewServer(DefaultConfig(), nil)
	svr.NewPointOfView("Steve") // spawns at (8, 1000, 8) -> chunk (0, 0)

	svr.tick()

	svr.chunksMu.Lock()
	_, ok := svr.chunks[ChunkPos{X: 0, Z: 0}]
	svr.chunksMu.Unlock()
	if !ok {
		t.Fatal("expected chunk (0,0) to be loaded after a tick")
	}
}
