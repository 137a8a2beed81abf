// Package loadbalance provides load balancing strategies for distributing
// work across multiple instances — incoming connections across worker
// goroutines on the server side, or candidate server addresses on the
// probe client side.
//
// Three strategies are implemented:
//   - RoundRobin:      Stateless workers, equal-capacity instances
//   - WeightedRandom:  Heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  Stateful routing requiring affinity (e.g. per-player)
package loadbalance

import "mcwire/internal/registry"

// Balancer is the interface for load balancing strategies.
// The caller calls Pick() before each dispatch to select a target instance.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called on every dispatch — must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
