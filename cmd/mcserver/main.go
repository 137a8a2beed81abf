// Command mcserver runs a bare protocol-core Minecraft server: no world
// generation, no gameplay, just the wire handshake/status/login/play
// handlers spec'd for this core.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"mcwire/internal/mcserver"
	"mcwire/internal/registry"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:25565", "listen address")
	advertise := flag.String("advertise", "", "address to advertise to the service registry (defaults to -addr)")
	etcdEndpoints := flag.String("etcd", "", "comma-separated etcd endpoints; empty disables service discovery")
	flag.Parse()

	cfg := mcserver.DefaultConfig()
	cfg.ListenAddr = *addr
	cfg.AdvertiseAddr = *advertise
	if cfg.AdvertiseAddr == "" {
		cfg.AdvertiseAddr = *addr
	}

	var reg registry.Registry
	if *etcdEndpoints != "" {
		r, err := registry.NewEtcdRegistry(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			log.Fatalf("mcserver: connecting to etcd: %v", err)
		}
		reg = r
	}

	svr := mcserver.NewServer(cfg, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("mcserver: listening on %s", cfg.ListenAddr)
	if err := svr.Serve(ctx); err != nil {
		log.Fatalf("mcserver: %v", err)
	}
}
