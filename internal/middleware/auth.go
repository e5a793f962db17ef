package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/audit"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

type contextKey string

const (
	UserContextKey    contextKey = "user"
	ProfileContextKey contextKey = "profile"
	TokenContextKey   contextKey = "token"
)

// Authenticator resolves a bearer token. An unknown or expired token yields
// nil, nil, nil. *service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, *model.Profile, error)
}

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

func GetProfile(ctx context.Context) *model.Profile {
	if profile, ok := ctx.Value(ProfileContextKey).(*model.Profile); ok {
		return profile
	}
	return nil
}

func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

// WithIdentity stores an authenticated caller on ctx.
func WithIdentity(ctx context.Context, user *model.User, profile *model.Profile, token string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	ctx = context.WithValue(ctx, ProfileContextKey, profile)
	return context.WithValue(ctx, TokenContextKey, token)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		user, profile, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: lookup failed")
			writeError(w, apperrors.Internal("Authentication failed"))
			return
		}

		if user == nil || profile == nil {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			writeError(w, apperrors.InvalidToken("Invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user, profile, token)))
	})
}

// RequireMentor must run after AuthMiddleware.
func RequireMentor(next http.Handler) http.Handler {
	return requireRole(true, next)
}

// RequireMentee must run after AuthMiddleware.
func RequireMentee(next http.Handler) http.Handler {
	return requireRole(false, next)
}

func requireRole(mentor bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := GetProfile(r.Context())
		if profile == nil {
			writeError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}

		if profile.IsMentor != mentor {
			role := "mentee"
			if mentor {
				role = "mentor"
			}
			audit.LogFromRequest(r, audit.Event{
				Type:      audit.EventRoleDenied,
				ProfileID: profile.ID,
				Details:   map[string]interface{}{"required": role, "path": r.URL.Path},
			})
			writeError(w, apperrors.Forbidden("Only a "+role+" can do this"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken accepts a query token for EventSource clients, which cannot
// set headers.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
