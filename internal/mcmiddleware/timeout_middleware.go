package mcmiddleware

import (
	"context"
	"fmt"
	"time"

	"mcwire/internal/mcpacket"
)

// Timeout enforces a maximum duration for each packet handler call. If the
// handler doesn't complete within the timeout, the connection is treated
// as faulted and an error is returned immediately.
//
// Implementation:
//  1. Create a context with timeout (ctx.Done() fires when timeout expires)
//  2. Run the next handler in a goroutine, sending its result to a channel
//  3. Select between the result channel and ctx.Done()
//
// Note: the handler goroutine is NOT cancelled — it continues running in
// the background. The timeout only controls when the caller gives up
// waiting. For true cancellation, the handler must check ctx.Done() itself.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, conn *mcpacket.Connection, p mcpacket.Packet) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- next(ctx, conn, p)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return fmt.Errorf("mcmiddleware: packet handler timed out after %s", d)
			}
		}
	}
}
