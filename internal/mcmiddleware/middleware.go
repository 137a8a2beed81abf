// Package mcmiddleware implements the onion model middleware chain for
// inbound packet handling.
//
// Middleware wraps the business handler to add cross-cutting concerns
// (logging, rate limiting, timeout) without modifying the handler itself.
//
// Onion model execution order:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Request:   A.before → B.before → C.before → handler
//	Response:  handler → C.after → B.after → A.after
//
// Each middleware can:
//   - Do pre-processing (before calling next)
//   - Call next(ctx, conn, p) to pass to the next layer
//   - Do post-processing (after next returns)
//   - Short-circuit by returning early without calling next (e.g., rate limiting)
package mcmiddleware

import (
	"context"

	"mcwire/internal/mcpacket"
)

// Handler processes one decoded packet on one connection.
type Handler func(ctx context.Context, conn *mcpacket.Connection, p mcpacket.Packet) error

// Middleware takes a handler and returns a new handler that wraps it.
type Middleware func(next Handler) Handler

// Chain composes multiple middlewares into a single middleware. It builds
// the chain from right to left so that the first middleware in the list is
// the outermost layer (executed first on request, last on response).
//
// Example:
//
//	chain := Chain(Logging(), RateLimit(r, burst), Timeout(d))
//	handler := chain(businessHandler)
//	// Execution: Logging → RateLimit → Timeout → businessHandler → Timeout → RateLimit → Logging
func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
