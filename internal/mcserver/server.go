// Package mcserver drives accepted connections through the protocol
// handler table and runs the world tick loop.
//
// Three long-running goroutines participate: one TCP acceptor, one or
// more connection workers (the literal "second worker thread",
// generalized to a configurable pool), and one tick loop. The Server's
// shared maps (players, chunks, event listeners) are each guarded by
// their own mutex held only for the duration of a single update — never
// across a socket read or write.
package mcserver

import (
	"context"
	"fmt"
	"log"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"mcwire/internal/loadbalance"
	"mcwire/internal/mcmiddleware"
	"mcwire/internal/mcpacket"
	"mcwire/internal/registry"
)

// Server owns the player set, the chunk set, and the event-listener
// registry. The protocol layer only ever sees MessageOfTheDay,
// NewPointOfView, On and Emit.
type Server struct {
	cfg Config
	reg registry.Registry

	playersMu sync.Mutex
	players   map[string]*Player

	chunksMu sync.Mutex
	chunks   map[ChunkPos]*Chunk

	listenersMu sync.Mutex
	listeners   map[EventKind][]Listener

	motd string

	nextEntityID   int32
	workerBalancer loadbalance.Balancer

	listener net.Listener
}

// NewServer constructs a Server from cfg. reg may be nil to skip service
// discovery entirely, matching the teacher's Serve(..., reg) contract
// where a nil registry means "no etcd available".
func NewServer(cfg Config, reg registry.Registry) *Server {
	return &Server{
		cfg:            cfg,
		reg:            reg,
		players:        make(map[string]*Player),
		chunks:         make(map[ChunkPos]*Chunk),
		listeners:      make(map[EventKind][]Listener),
		motd:           "Hello, world!",
		workerBalancer: &loadbalance.RoundRobinBalancer{},
	}
}

// Addr returns the bound listener address. Only valid after Serve has
// started listening; primarily useful in tests that bind to ":0".
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// MessageOfTheDay returns the text a StatusResponse advertises. Listeners
// registered against EventMessageOfTheDayRequested run before this is
// read, so a plugin can mutate it via SetMessageOfTheDay first.
func (s *Server) MessageOfTheDay() string {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return s.motd
}

// SetMessageOfTheDay overrides the MOTD. Exposed for event listeners.
func (s *Server) SetMessageOfTheDay(text string) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.motd = text
}

// NewPointOfView registers a fresh player at the flat-overworld spawn
// point used throughout the join flow, keyed and compared by username
// alone.
func (s *Server) NewPointOfView(name string) *Player {
	p := &Player{Username: name, X: 8, Y: 1000, Z: 8}
	s.playersMu.Lock()
	s.players[name] = p
	s.playersMu.Unlock()
	s.Emit(EventPlayerJoined, p)
	return p
}

type connEntry struct {
	conn    *mcpacket.Connection
	handler mcmiddleware.Handler
}

// Serve binds cfg.ListenAddr, optionally registers with the service
// registry, starts the worker pool and the tick loop, and runs the accept
// loop until ctx is cancelled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("mcserver: listen: %w", err)
	}
	s.listener = ln

	deregister := func() {}
	if s.reg != nil && s.cfg.AdvertiseAddr != "" {
		if err := s.reg.Register("mcserver", registry.ServiceInstance{Addr: s.cfg.AdvertiseAddr}, 10); err != nil {
			log.Printf("mcserver: registry registration failed: %v", err)
		} else {
			var once sync.Once
			deregister = func() {
				once.Do(func() { s.reg.Deregister("mcserver", s.cfg.AdvertiseAddr) })
			}
			defer deregister()
		}
	}

	poolSize := s.cfg.WorkerPoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	workerChans := make([]chan *connEntry, poolSize)
	workerInstances := make([]registry.ServiceInstance, poolSize)
	for i := range workerChans {
		workerChans[i] = make(chan *connEntry, 16)
		workerInstances[i] = registry.ServiceInstance{Addr: fmt.Sprintf("worker-%d", i)}
		go s.runWorker(ctx, workerChans[i])
	}

	go s.runTickLoop(ctx)

	go func() {
		<-ctx.Done()
		deregister()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		workerChans[s.pickWorker(workerInstances)] <- &connEntry{
			conn:    mcpacket.NewConnection(conn),
			handler: s.buildHandlerChain(),
		}
	}
}

// pickWorker shards a new connection across the worker pool via
// RoundRobin, the same balancer the teacher used for client-side server
// selection, repurposed here for connection-to-worker assignment.
func (s *Server) pickWorker(instances []registry.ServiceInstance) int {
	inst, err := s.workerBalancer.Pick(instances)
	if err != nil {
		return 0
	}
	var idx int
	fmt.Sscanf(inst.Addr, "worker-%d", &idx)
	return idx
}

func (s *Server) buildHandlerChain() mcmiddleware.Handler {
	chain := mcmiddleware.Chain(
		mcmiddleware.Logging(),
		mcmiddleware.RateLimit(s.cfg.PacketRateLimit, s.cfg.PacketRateBurst),
		mcmiddleware.Timeout(5*time.Second),
	)
	return chain(s.businessHandler)
}

// runWorker is the non-blocking connection-worker loop: it never waits on
// a socket longer than Connection.Recv's one-millisecond read deadline.
// WouldBlock (an empty, error-free Recv) is the normal steady
// state, and the loop yields ~1µs between sweeps instead of spinning.
func (s *Server) runWorker(ctx context.Context, incoming <-chan *connEntry) {
	var active []*connEntry
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-incoming:
			active = append(active, e)
		default:
		}

		remaining := active[:0]
		for _, e := range active {
			if s.driveConnection(ctx, e) {
				remaining = append(remaining, e)
			}
		}
		active = remaining

		runtime.Gosched()
		time.Sleep(time.Microsecond)
	}
}

// driveConnection drains and dispatches every packet currently available
// on e.conn. It returns false when the connection should be dropped from
// the worker's active set (peer closed, protocol error, or any other
// non-recoverable failure).
func (s *Server) driveConnection(ctx context.Context, e *connEntry) bool {
	packets, err := e.conn.Recv()
	if err != nil {
		e.conn.Close()
		return false
	}
	for _, p := range packets {
		if err := e.handler(ctx, e.conn, p); err != nil {
			log.Printf("mcserver: %v", err)
			e.conn.Close()
			return false
		}
	}
	return true
}

// businessHandler implements spec.md's handler table: acknowledge-only
// inbound packets, StatusRequest/StatusPing round trips, and the
// LoginStart join sequence. Anything not covered here is a protocol
// error that faults the connection.
func (s *Server) businessHandler(ctx context.Context, conn *mcpacket.Connection, p mcpacket.Packet) error {
	switch pkt := p.(type) {
	case mcpacket.Handshake, mcpacket.ClientSettings, mcpacket.TeleportConfirm,
		mcpacket.PluginMessageServerbound, mcpacket.PlayerPositionAndRotationServerbound:
		return nil

	case mcpacket.StatusRequest:
		s.Emit(EventMessageOfTheDayRequested, nil)
		return conn.Send(mcpacket.StatusResponse{
			ProtocolName:    "1.16.4",
			ProtocolVersion: 754,
			MaxPlayers:      s.cfg.MaxPlayers,
			OnlinePlayers:   0,
			Sample:          nil,
			Description:     s.MessageOfTheDay(),
		})

	case mcpacket.StatusPing:
		return conn.Send(mcpacket.StatusPong{Nonce: pkt.Nonce})

	case mcpacket.LoginStart:
		s.NewPointOfView(pkt.Username)
		entityID := atomic.AddInt32(&s.nextEntityID, 1)
		return conn.Send(
			mcpacket.LoginSuccess{UUIDHi: 0, UUIDLo: 200, Username: pkt.Username},
			mcpacket.JoinGame{
				EntityID:       entityID,
				Hardcore:       false,
				Gamemode:       0,
				PrevGamemode:   -1,
				Worlds:         []string{"minecraft:overworld"},
				DimensionCodec: mcpacket.DefaultDimensionCodec,
				Dimension:      mcpacket.DefaultDimension,
				WorldName:      "minecraft:overworld",
				HashedSeed:     0,
				MaxPlayers:     0,
				ViewDistance:   s.cfg.ViewDistance,
				ReducedDebug:   false,
				RespawnScreen:  true,
				IsDebug:        false,
				IsFlat:         true,
			},
			mcpacket.PlayerPositionAndLookS2C{
				X: 8, Y: 1000, Z: 8,
				Yaw: 0, Pitch: 0,
				Flags:      0,
				TeleportID: 0,
			},
		)

	default:
		return fmt.Errorf("protocol error: unexpected %T in state %s", p, p.State())
	}
}
