package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/audit"
	"github.com/mentormatch/mentor-match-go/internal/config"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
)

const apiRateLimitWindow = 60 * time.Second

// APIRateLimitMiddleware applies the per-profile sliding window to
// authenticated routes. It must run after AuthMiddleware.
type APIRateLimitMiddleware struct {
	limiter Limiter
	limit   int
}

func NewAPIRateLimitMiddleware(limiter Limiter, limit int) *APIRateLimitMiddleware {
	if limit <= 0 {
		limit = config.DefaultRateLimitPerMin
	}
	return &APIRateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *APIRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := GetProfile(r.Context())
		if profile == nil {
			next.ServeHTTP(w, r)
			return
		}

		decision := m.limiter.CheckLimit(r.Context(), "api:"+profile.ID, m.limit, apiRateLimitWindow)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			log.Warn().Str("profileId", profile.ID).Msg("rate limit exceeded")
			audit.LogFromRequest(r, audit.Event{
				Type:      audit.EventRateLimitExceed,
				ProfileID: profile.ID,
				Details:   map[string]interface{}{"scope": "api"},
			})
			w.Header().Set("Retry-After", "60")
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
