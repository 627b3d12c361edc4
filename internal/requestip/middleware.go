package requestip

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware stores the best-effort client IP into the request context.
//
// Resolution is delegated to gin's ClientIP, which honours the engine's trusted
// proxy list and RemoteIPHeaders (see Configure).
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Configure applies the proxy trust settings used by Middleware.
//
// An empty trustedProxies list disables forwarding headers entirely, so the
// TCP peer address is used. remoteIPHeaders keeps gin's defaults when empty.
func Configure(r *gin.Engine, trustedProxies, remoteIPHeaders []string) error {
	proxies := compact(trustedProxies)
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return fmt.Errorf("requestip: trusted proxies: %w", err)
	}
	if headers := compact(remoteIPHeaders); len(headers) > 0 {
		r.RemoteIPHeaders = headers
	}
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
