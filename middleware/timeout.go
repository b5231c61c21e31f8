package middleware

import (
	"context"
	"time"

	"github.com/akeyless-community/akeyless-mcp-plugin/protocol"
)

// Timeout returns middleware that enforces a per-call deadline. If the
// exchange does not complete within d, the context is cancelled and
// context.DeadlineExceeded is returned.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
