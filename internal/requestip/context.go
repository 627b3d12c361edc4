package requestip

import (
	"context"
)

// clientIPKey is an unexported context key for passing the client IP through internal layers.
//
// HTTP handlers (Gin) resolve the real client IP once and attach it to the
// request context using WithClientIP. Nothing below the HTTP layer reads the request itself.

type clientIPKey struct{}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// FromContext returns the client IP stored by WithClientIP, or "" when the context
// does not originate from an HTTP request (workers, CLI tools, tests).
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v := ctx.Value(clientIPKey{})
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
