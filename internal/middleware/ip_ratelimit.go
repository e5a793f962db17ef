package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mentormatch/mentor-match-go/internal/audit"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/service"
)

// Limiter is implemented by *service.RateLimiter.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) service.RateLimitDecision
}

// IPRateLimitMiddleware guards unauthenticated endpoints (login, signup,
// password reset) per client address.
type IPRateLimitMiddleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	prefix  string
	now     func() time.Time
}

func NewIPRateLimitMiddleware(limiter Limiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		key := fmt.Sprintf("auth:%s:%s", m.prefix, ip)
		decision := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !decision.Allowed {
			secondsLeft := int(decision.ResetAt.Sub(m.now()).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"scope": m.prefix},
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many requests. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port; chi's RealIP has already rewritten RemoteAddr
// when the server sits behind a proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
