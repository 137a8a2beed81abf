// Package mcprobe implements a minimal bot-like client: it dials one
// server address and speaks the handshake/status/login/play subset of the
// wire protocol from the other end, for integration tests and the
// cmd/mcprobe smoke tool.
//
// Unlike transport.ClientTransport, which multiplexes many concurrent
// calls over one connection via a Seq-keyed pending map and a background
// recvLoop, a Probe tracks protocol state sequentially the same way
// mcpacket.Connection does — the wire protocol has nothing to multiplex
// within a single state, so there is no pending map and no background
// goroutine here.
package mcprobe

import (
	"fmt"
	"net"
	"time"

	"mcwire/internal/loadbalance"
	"mcwire/internal/mcpacket"
	"mcwire/internal/registry"
)

// Probe owns one dialed connection speaking as the client side of the
// protocol.
type Probe struct {
	conn    *mcpacket.Connection
	addr    string
	pending []mcpacket.Packet // packets decoded by Recv but not yet returned by recvOne
}

// Dial opens a TCP connection to addr and wraps it in client-bound mode.
func Dial(addr string) (*Probe, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Probe{conn: mcpacket.NewProbeConnection(nc), addr: addr}, nil
}

// DialDiscover resolves serviceName against reg, picks one instance via
// balancer, and dials it — the probe-side counterpart of the server's
// own balancer-based worker sharding (mcserver.Server.pickWorker), reused
// here to fleet-test whichever backend a RoundRobin or WeightedRandom
// strategy would actually route a real client to. ConsistentHash does not
// implement loadbalance.Balancer; DialConsistentHash covers that strategy.
func DialDiscover(reg registry.Registry, serviceName string, balancer loadbalance.Balancer) (*Probe, error) {
	instances, err := reg.Discover(serviceName)
	if err != nil {
		return nil, fmt.Errorf("mcprobe: discover %s: %w", serviceName, err)
	}
	inst, err := balancer.Pick(instances)
	if err != nil {
		return nil, fmt.Errorf("mcprobe: pick instance for %s: %w", serviceName, err)
	}
	return Dial(inst.Addr)
}

// DialConsistentHash resolves serviceName against reg and dials whichever
// instance key hashes to. ConsistentHashBalancer keys off a caller-supplied
// string rather than round-robin/weighted's "any instance will do", so a
// probe exercising per-player affinity (the same username always lands on
// the same backend) builds the ring fresh from the current Discover result
// on every call instead of sharing a Balancer.
func DialConsistentHash(reg registry.Registry, serviceName, key string) (*Probe, error) {
	instances, err := reg.Discover(serviceName)
	if err != nil {
		return nil, fmt.Errorf("mcprobe: discover %s: %w", serviceName, err)
	}
	ring := loadbalance.NewConsistentHashBalancer()
	for i := range instances {
		ring.Add(&instances[i])
	}
	inst, err := ring.Pick(key)
	if err != nil {
		return nil, fmt.Errorf("mcprobe: pick instance for %s via %s: %w", serviceName, key, err)
	}
	return Dial(inst.Addr)
}

// Close releases the underlying connection.
func (p *Probe) Close() error { return p.conn.Close() }

// recvOne polls the connection's non-blocking Recv until a packet arrives
// or timeout elapses. When one Recv decodes several packets, the rest are
// queued and returned by the following calls, in wire order.
func (p *Probe) recvOne(timeout time.Duration) (mcpacket.Packet, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(p.pending) == 0 {
			packets, err := p.conn.Recv()
			if err != nil {
				return nil, err
			}
			p.pending = append(p.pending, packets...)
		}
		if len(p.pending) > 0 {
			pkt := p.pending[0]
			p.pending = p.pending[1:]
			return pkt, nil
		}
		time.Sleep(time.Millisecond)
	}
	return nil, fmt.Errorf("mcprobe: timed out waiting for a response from %s", p.addr)
}

// Handshake sends the single Handshake packet, declaring whether the
// connection is about to query status or log in.
func (p *Probe) Handshake(nextState mcpacket.State) error {
	var next int32
	switch nextState {
	case mcpacket.StateStatus:
		next = 1
	case mcpacket.StateLogin:
		next = 2
	default:
		return fmt.Errorf("mcprobe: invalid handshake next state %s", nextState)
	}

	host, portStr, err := net.SplitHostPort(p.addr)
	if err != nil {
		host, portStr = p.addr, "25565"
	}
	var port uint16
	fmt.Sscanf(portStr, "%d", &port)

	return p.conn.Send(mcpacket.Handshake{ProtocolVersion: 754, Addr: host, Port: port, Next: next})
}

// StatusRoundTrip sends a StatusRequest and waits for the StatusResponse.
func (p *Probe) StatusRoundTrip() (*mcpacket.StatusResponse, error) {
	if err := p.conn.Send(mcpacket.StatusRequest{}); err != nil {
		return nil, err
	}
	pkt, err := p.recvOne(3 * time.Second)
	if err != nil {
		return nil, err
	}
	resp, ok := pkt.(mcpacket.StatusResponse)
	if !ok {
		return nil, fmt.Errorf("mcprobe: expected StatusResponse, got %T", pkt)
	}
	return &resp, nil
}

// PingPong sends a StatusPing carrying nonce and returns the nonce echoed
// back in the StatusPong.
func (p *Probe) PingPong(nonce int64) (int64, error) {
	if err := p.conn.Send(mcpacket.StatusPing{Nonce: nonce}); err != nil {
		return 0, err
	}
	pkt, err := p.recvOne(3 * time.Second)
	if err != nil {
		return 0, err
	}
	pong, ok := pkt.(mcpacket.StatusPong)
	if !ok {
		return 0, fmt.Errorf("mcprobe: expected StatusPong, got %T", pkt)
	}
	return pong.Nonce, nil
}

// LoginAndJoin sends LoginStart and drives the connection through the
// fixed reply sequence (LoginSuccess, JoinGame, PlayerPositionAndLookS2C),
// returning the decoded join parameters and spawn position.
func (p *Probe) LoginAndJoin(username string) (*mcpacket.JoinGame, *mcpacket.PlayerPositionAndLookS2C, error) {
	if err := p.conn.Send(mcpacket.LoginStart{Username: username}); err != nil {
		return nil, nil, err
	}

	loginPkt, err := p.recvOne(3 * time.Second)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := loginPkt.(mcpacket.LoginSuccess); !ok {
		return nil, nil, fmt.Errorf("mcprobe: expected LoginSuccess, got %T", loginPkt)
	}

	joinPkt, err := p.recvOne(3 * time.Second)
	if err != nil {
		return nil, nil, err
	}
	joinGame, ok := joinPkt.(mcpacket.JoinGame)
	if !ok {
		return nil, nil, fmt.Errorf("mcprobe: expected JoinGame, got %T", joinPkt)
	}

	posPkt, err := p.recvOne(3 * time.Second)
	if err != nil {
		return nil, nil, err
	}
	pos, ok := posPkt.(mcpacket.PlayerPositionAndLookS2C)
	if !ok {
		return nil, nil, fmt.Errorf("mcprobe: expected PlayerPositionAndLookS2C, got %T", posPkt)
	}

	// A real client would reply with TeleportConfirm here; a probe has
	// nothing further to confirm, so the exchange ends at spawn.
	return &joinGame, &pos, nil
}
