package mcpacket

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"mcwire/internal/wire"
)

// loopback opens a real TCP connection pair on localhost. A kernel-buffered
// socket, unlike net.Pipe's synchronous rendezvous, lets a write land
// before anyone reads it — exactly what the non-blocking drain trick and
// the partial-read scenario below depend on.
func loopback(t *testing.T) (serverSide, clientSide net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		acceptCh <- c
	}()

	clientSide, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	serverSide = <-acceptCh
	return serverSide, clientSide
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

func handshakePayload(t *testing.T, proto int32, addr string, port uint16, next int32) []byte {
	t.Helper()
	var buf bytes.Buffer
	wire.WriteVarInt(&buf, proto)
	wire.WriteString(&buf, addr)
	wire.WriteUint16(&buf, port)
	wire.WriteVarInt(&buf, next)
	return buf.Bytes()
}

// readFrame reads one length-prefixed frame off r, for assertions against
// what a Connection wrote.
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

func TestStatusHandshakeScenario(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()
	defer server.Close()
	conn := NewConnection(server)

	frame := buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 1))
	go client.Write(frame)

	var packets []Packet
	deadline := time.Now().Add(time.Second)
	for len(packets) == 0 && time.Now().Before(deadline) {
		p, err := conn.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		packets = append(packets, p...)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	hs, ok := packets[0].(Handshake)
	if !ok {
		t.Fatalf("got %T, want Handshake", packets[0])
	}
	if hs.ProtocolVersion != 754 || hs.Addr != "localhost" || hs.Port != 25565 || hs.Next != 1 {
		t.Errorf("unexpected Handshake: %+v", hs)
	}
	if conn.State() != StateStatus {
		t.Errorf("state = %v, want Status", conn.State())
	}

	if err := conn.Send(StatusResponse{
		ProtocolName:    "1.16.4",
		ProtocolVersion: 754,
		Description:     "a server",
	}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	id, payload := readFrame(t, client)
	if id != 0 {
		t.Errorf("response id = %d, want 0", id)
	}
	s, _, err := wire.ReadString(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if !bytes.HasPrefix([]byte(s), []byte(`{"version":{"name":"1.16.4","protocol":754}`)) {
		t.Errorf("status JSON = %q, missing expected prefix", s)
	}
}

func TestPingPongScenario(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()
	defer server.Close()
	conn := NewConnection(server)
	conn.state = StateStatus

	var noncePayload bytes.Buffer
	wire.WriteInt64(&noncePayload, 42)
	frame := buildFrame(t, 1, noncePayload.Bytes())
	go client.Write(frame)

	var packets []Packet
	deadline := time.Now().Add(time.Second)
	for len(packets) == 0 && time.Now().Before(deadline) {
		p, err := conn.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		packets = append(packets, p...)
	}
	ping, ok := packets[0].(StatusPing)
	if !ok || ping.Nonce != 42 {
		t.Fatalf("got %+v, want StatusPing{Nonce:42}", packets[0])
	}

	if err := conn.Send(StatusPong{Nonce: ping.Nonce}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	id, payload := readFrame(t, client)
	if id != 1 {
		t.Errorf("pong id = %d, want 1", id)
	}
	nonce, err := wire.ReadInt64(bytes.NewReader(payload))
	if err != nil || nonce != 42 {
		t.Errorf("got nonce %d, err %v, want 42", nonce, err)
	}
}

func TestLoginFlowScenario(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()
	defer server.Close()
	conn := NewConnection(server)

	go func() {
		client.Write(buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 2)))
		var loginPayload bytes.Buffer
		wire.WriteString(&loginPayload, "Alex")
		client.Write(buildFrame(t, 0, loginPayload.Bytes()))
	}()

	var packets []Packet
	deadline := time.Now().Add(time.Second)
	for len(packets) < 2 && time.Now().Before(deadline) {
		p, err := conn.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		packets = append(packets, p...)
	}
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	if _, ok := packets[0].(Handshake); !ok {
		t.Fatalf("packets[0] = %T, want Handshake", packets[0])
	}
	login, ok := packets[1].(LoginStart)
	if !ok || login.Username != "Alex" {
		t.Fatalf("packets[1] = %+v, want LoginStart{Username:Alex}", packets[1])
	}
	if conn.State() != StateLogin {
		t.Fatalf("state = %v, want Login", conn.State())
	}

	err := conn.Send(
		LoginSuccess{UUIDHi: 0, UUIDLo: 200, Username: "Alex"},
		JoinGame{
			EntityID:       1,
			Gamemode:       0,
			Worlds:         []string{"minecraft:overworld"},
			DimensionCodec: DefaultDimensionCodec,
			Dimension:      DefaultDimension,
			WorldName:      "minecraft:overworld",
			MaxPlayers:     0,
			ViewDistance:   10,
			IsFlat:         true,
		},
		PlayerPositionAndLookS2C{X: 8, Y: 1000, Z: 8, TeleportID: 0},
	)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if conn.State() != StatePlay {
		t.Fatalf("state after LoginSuccess = %v, want Play", conn.State())
	}

	id, payload := readFrame(t, client)
	if id != 2 {
		t.Fatalf("first response id = %d, want 2 (LoginSuccess)", id)
	}
	if _, _, err := wire.ReadUint128(bytes.NewReader(payload)); err != nil {
		t.Errorf("LoginSuccess uuid decode failed: %v", err)
	}

	id, payload = readFrame(t, client)
	if id != 36 {
		t.Fatalf("second response id = %d, want 36 (JoinGame)", id)
	}
	if !bytes.Contains(payload, []byte("minecraft:overworld")) {
		t.Errorf("JoinGame payload missing dimension registry name minecraft:overworld")
	}
	if !bytes.Contains(payload, []byte("minecraft:plains")) {
		t.Errorf("JoinGame payload missing biome registry name minecraft:plains")
	}

	id, payload = readFrame(t, client)
	if id != 52 {
		t.Fatalf("third response id = %d, want 52 (PlayerPositionAndLookS2C)", id)
	}
	x, err := wire.ReadFloat64(bytes.NewReader(payload))
	if err != nil || x != 8 {
		t.Errorf("got x=%v err=%v, want 8", x, err)
	}
}

func TestPartialReadScenario(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()
	defer server.Close()
	conn := NewConnection(server)

	frame := buildFrame(t, 0, handshakePayload(t, 754, "localhost", 25565, 1))
	if len(frame) < 10 {
		t.Fatalf("test fixture frame too short: %d bytes", len(frame))
	}

	go client.Write(frame[:3])
	time.Sleep(50 * time.Millisecond)
	packets, err := conn.Recv()
	if err != nil {
		t.Fatalf("Recv (partial) failed: %v", err)
	}
	if len(packets) != 0 {
		t.Fatalf("got %d packets from a partial frame, want 0", len(packets))
	}

	go client.Write(frame[3:])
	var allPackets []Packet
	deadline := time.Now().Add(time.Second)
	for len(allPackets) == 0 && time.Now().Before(deadline) {
		p, err := conn.Recv()
		if err != nil {
			t.Fatalf("Recv (remainder) failed: %v", err)
		}
		allPackets = append(allPackets, p...)
	}
	if len(allPackets) != 1 {
		t.Fatalf("got %d packets after remainder, want 1", len(allPackets))
	}
	if _, ok := allPackets[0].(Handshake); !ok {
		t.Fatalf("got %T, want Handshake", allPackets[0])
	}
}

func TestUnknownPacketScenario(t *testing.T) {
	server, client := loopback(t)
	defer client.Close()
	defer server.Close()
	conn := NewConnection(server)
	conn.state = StatePlay

	go client.Write(buildFrame(t, 0xFF, nil))

	var lastErr error
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_, err := conn.Recv()
		if err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected an InvalidData-class error for an unknown packet id, got nil")
	}
}
