package mcmiddleware

import (
	"context"
	"log"
	"time"

	"mcwire/internal/mcpacket"
)

// Logging records the connection state, bound, packet type, and duration
// for each handled packet. It captures the start time before calling next,
// and logs the elapsed time after next returns.
//
// Example output:
//
//	state=Play bound=Server packet=mcpacket.TeleportConfirm duration=4µs
func Logging() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, conn *mcpacket.Connection, p mcpacket.Packet) error {
			start := time.Now()
			err := next(ctx, conn, p)
			duration := time.Since(start)
			log.Printf("state=%s bound=%s packet=%T duration=%s", p.State(), p.Bound(), p, duration)
			if err != nil {
				log.Printf("packet=%T error=%s", p, err)
			}
			return err
		}
	}
}
