package mcprobe

import (
	"context"
	"testing"
	"time"

	"mcwire/internal/loadbalance"
	"mcwire/internal/mcpacket"
	"mcwire/internal/mcserver"
	"mcwire/internal/registry"
)

// mockRegistry is an in-memory Registry, grounded on the teacher's
// client_test.go MockRegistry — swapped in here instead of a real etcd
// cluster to exercise DialDiscover/DialConsistentHash.
type mockRegistry struct {
	instances map[string][]registry.ServiceInstance
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{instances: make(map[string][]registry.ServiceInstance)}
}

func (m *mockRegistry) Register(serviceName string, inst registry.ServiceInstance, ttl int64) error {
	m.instances[serviceName] = append(m.instances[serviceName], inst)
	return nil
}

func (m *mockRegistry) Deregister(serviceName string, addr string) error {
	insts := m.instances[serviceName]
	for i, inst := range insts {
		if inst.Addr == addr {
			m.instances[serviceName] = append(insts[:i], insts[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockRegistry) Discover(serviceName string) ([]registry.ServiceInstance, error) {
	return m.instances[serviceName], nil
}

func (m *mockRegistry) Watch(serviceName string) <-chan []registry.ServiceInstance {
	return nil
}

func startTestServer(t *testing.T) string {
	t.Helper()
	cfg := mcserver.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.TickInterval = 5 * time.Millisecond
	svr := mcserver.NewServer(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go svr.Serve(ctx)

	deadline := time.Now().Add(time.Second)
	for svr.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if svr.Addr() == nil {
		t.Fatal("server never bound a listen address")
	}
	return svr.Addr().String()
}

func TestProbeStatusRoundTrip(t *testing.T) {
	addr := startTestServer(t)
	p, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer p.Close()

	if err := p.Handshake(mcpacket.StateStatus); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}
	resp, err := p.StatusRoundTrip()
	if err != nil {
		t.Fatalf("StatusRoundTrip failed: %v", err)
	}
	if resp.ProtocolVersion != 754 {
		t.Errorf("ProtocolVersion = %d, want 754", resp.ProtocolVersion)
	}
}

func TestProbePingPong(t *testing.T) {
	addr := startTestServer(t)
	p, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer p.Close()

	if err := p.Handshake(mcpacket.StateStatus); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}
	nonce, err := p.PingPong(42)
	if err != nil {
		t.Fatalf("PingPong failed: %v", err)
	}
	if nonce != 42 {
		t.Errorf("nonce = %d, want 42", nonce)
	}
}

func TestProbeLoginAndJoin(t *testing.T) {
	addr := startTestServer(t)
	p, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer p.Close()

	if err := p.Handshake(mcpacket.StateLogin); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}
	joinGame, pos, err := p.LoginAndJoin("Steve")
	if err != nil {
		t.Fatalf("LoginAndJoin failed: %v", err)
	}
	if len(joinGame.Worlds) == 0 || joinGame.Worlds[0] != "minecraft:overworld" {
		t.Errorf("JoinGame.Worlds = %v, want [minecraft:overworld]", joinGame.Worlds)
	}
	if pos.X != 8 || pos.Y != 1000 || pos.Z != 8 {
		t.Errorf("spawn position = (%v,%v,%v), want (8,1000,8)", pos.X, pos.Y, pos.Z)
	}
}

func TestDialDiscoverPicksRegisteredInstance(t *testing.T) {
	addr := startTestServer(t)
	reg := newMockRegistry()
	reg.Register("mcserver", registry.ServiceInstance{Addr: addr, Weight: 10, Version: "754"}, 10)

	p, err := DialDiscover(reg, "mcserver", &loadbalance.RoundRobinBalancer{})
	if err != nil {
		t.Fatalf("DialDiscover failed: %v", err)
	}
	defer p.Close()

	if err := p.Handshake(mcpacket.StateStatus); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}
	if _, err := p.StatusRoundTrip(); err != nil {
		t.Fatalf("StatusRoundTrip failed: %v", err)
	}
}

func TestDialDiscoverNoInstances(t *testing.T) {
	reg := newMockRegistry()
	if _, err := DialDiscover(reg, "mcserver", &loadbalance.RoundRobinBalancer{}); err == nil {
		t.Fatal("expected an error when no instances are registered")
	}
}

func TestDialConsistentHashIsStableForSameKey(t *testing.T) {
	addrA := startTestServer(t)
	addrB := startTestServer(t)
	reg := newMockRegistry()
	reg.Register("mcserver", registry.ServiceInstance{Addr: addrA}, 10)
	reg.Register("mcserver", registry.ServiceInstance{Addr: addrB}, 10)

	p1, err := DialConsistentHash(reg, "mcserver", "Steve")
	if err != nil {
		t.Fatalf("DialConsistentHash failed: %v", err)
	}
	defer p1.Close()

	p2, err := DialConsistentHash(reg, "mcserver", "Steve")
	if err != nil {
		t.Fatalf("DialConsistentHash failed: %v", err)
	}
	defer p2.Close()

	if p1.addr != p2.addr {
		t.Errorf("same key routed to different instances: %s vs %s", p1.addr, p2.addr)
	}
}
