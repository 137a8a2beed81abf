package mcmiddleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"mcwire/internal/mcpacket"
)

// RateLimit creates a rate limiter using the token bucket algorithm.
//
// Token bucket: tokens are added at rate r per second, up to a burst size.
// Each inbound packet consumes one token. If the bucket is empty, the
// connection is treated as flooding and is closed — there is no wire
// packet for "slow down".
//
// CRITICAL: the limiter is created in the OUTER closure (once per call to
// RateLimit, i.e. once per connection when the caller builds a fresh chain
// per Connection), NOT inside the inner handler. If it were created
// per-packet, every packet would draw from a fresh full bucket, defeating
// the entire purpose of rate limiting.
func RateLimit(r rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(r, burst)
	return func(next Handler) Handler {
		return func(ctx context.Context, conn *mcpacket.Connection, p mcpacket.Packet) error {
			if !limiter.Allow() {
				conn.Close()
				return fmt.Errorf("mcmiddleware: rate limit exceeded, connection closed")
			}
			return next(ctx, conn, p)
		}
	}
}
