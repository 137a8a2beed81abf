package mcserver

import (
	"time"

	"golang.org/x/time/rate"
)

// Config controls the parameters Serve needs but the wire protocol itself
// has no opinion on — listen address, tick rate, worker pool size, and
// the per-connection inbound rate limit.
type Config struct {
	ListenAddr    string // e.g. "0.0.0.0:25565"
	AdvertiseAddr string // address registered with the registry, if any

	TickInterval time.Duration // world-tick period; 20 Hz nominal
	ViewDistance int32
	MaxPlayers   int32

	WorkerPoolSize int // number of connection-worker goroutines sharded via loadbalance.RoundRobin

	PacketRateLimit rate.Limit // inbound packets/sec allowed per connection before it is closed
	PacketRateBurst int
}

// DefaultConfig resolves the tick-rate and max-players choices a plain
// struct-based config leaves open: 20 Hz ticking and a small positive
// player cap, with a single connection worker (the literal "second worker
// thread") and a generous but bounded per-connection packet rate.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "0.0.0.0:25565",
		TickInterval:    time.Second / 20,
		ViewDistance:    10,
		MaxPlayers:      20,
		WorkerPoolSize:  1,
		PacketRateLimit: rate.Limit(200),
		PacketRateBurst: 400,
	}
}
