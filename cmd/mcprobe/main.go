// Command mcprobe is a smoke-test client: it dials a server, walks the
// status or login flow, and prints the decoded packets it receives.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"mcwire/internal/loadbalance"
	"mcwire/internal/mcpacket"
	"mcwire/internal/mcprobe"
	"mcwire/internal/registry"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:25565", "server address to probe")
	username := flag.String("username", "Probe", "username to log in with")
	statusOnly := flag.Bool("status", false, "query status only, skip login")
	etcdEndpoints := flag.String("etcd-endpoints", "", "comma-separated etcd endpoints; when set, -addr is ignored and the target is discovered under -service instead")
	service := flag.String("service", "mcserver", "service name to discover when -etcd-endpoints is set")
	balance := flag.String("balance", "roundrobin", "instance selection strategy when -etcd-endpoints is set: roundrobin, weighted, or consistenthash")
	flag.Parse()

	p, err := dial(*addr, *etcdEndpoints, *service, *balance, *username)
	if err != nil {
		log.Fatalf("mcprobe: %v", err)
	}
	defer p.Close()

	if *statusOnly {
		if err := p.Handshake(mcpacket.StateStatus); err != nil {
			log.Fatalf("mcprobe: handshake: %v", err)
		}
		resp, err := p.StatusRoundTrip()
		if err != nil {
			log.Fatalf("mcprobe: status: %v", err)
		}
		fmt.Printf("status: protocol=%d (%s) players=%d/%d motd=%q\n",
			resp.ProtocolVersion, resp.ProtocolName, resp.OnlinePlayers, resp.MaxPlayers, resp.Description)
		return
	}

	if err := p.Handshake(mcpacket.StateLogin); err != nil {
		log.Fatalf("mcprobe: handshake: %v", err)
	}
	joinGame, pos, err := p.LoginAndJoin(*username)
	if err != nil {
		log.Fatalf("mcprobe: login: %v", err)
	}
	fmt.Printf("joined: entity=%d world=%s worlds=%v view-distance=%d\n",
		joinGame.EntityID, joinGame.WorldName, joinGame.Worlds, joinGame.ViewDistance)
	fmt.Printf("spawn: (%.1f, %.1f, %.1f) yaw=%.1f pitch=%.1f\n",
		pos.X, pos.Y, pos.Z, pos.Yaw, pos.Pitch)
}

// dial picks between a direct single-address dial and a registry-backed
// fleet dial. The latter mirrors mcserver's own worker-sharding balancer
// choice, but one level up: instead of picking a worker goroutine for one
// connection, it picks a server instance for this probe.
func dial(addr, etcdEndpoints, service, balance, username string) (*mcprobe.Probe, error) {
	if etcdEndpoints == "" {
		return mcprobe.Dial(addr)
	}

	reg, err := registry.NewEtcdRegistry(strings.Split(etcdEndpoints, ","))
	if err != nil {
		return nil, fmt.Errorf("connect to etcd: %w", err)
	}

	if balance == "consistenthash" {
		return mcprobe.DialConsistentHash(reg, service, username)
	}

	var b loadbalance.Balancer
	switch balance {
	case "weighted":
		b = &loadbalance.WeightedRandomBalancer{}
	case "roundrobin":
		b = &loadbalance.RoundRobinBalancer{}
	default:
		return nil, fmt.Errorf("unknown -balance %q", balance)
	}
	return mcprobe.DialDiscover(reg, service, b)
}
