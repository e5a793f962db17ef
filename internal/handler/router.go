package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mentormatch/mentor-match-go/internal/config"
	"github.com/mentormatch/mentor-match-go/internal/middleware"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// AuthBackend is the account service as seen by both the auth routes and
// the bearer-token middleware.
type AuthBackend interface {
	AuthAPI
	middleware.Authenticator
}

// ReviewBackend serves both the session review routes and a mentor's review
// listing.
type ReviewBackend interface {
	ReviewAPI
	MentorReviewsAPI
}

type RouterDeps struct {
	Auth           AuthBackend
	Profiles       ProfileAPI
	Metrics        AggregateAPI
	Sessions       SessionAPI
	Reviews        ReviewBackend
	Educations     ResourceAPI[model.Education, *model.Education]
	Experiences    ResourceAPI[model.Experience, *model.Experience]
	Certifications ResourceAPI[model.Certification, *model.Certification]
	Calendar       CalendarCallbackAPI
	Broker         Subscriber
	Limiter        middleware.Limiter
	IsProduction   bool
}

func NewRouter(d RouterDeps) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(d.Auth)
	apiRateLimit := middleware.NewAPIRateLimitMiddleware(d.Limiter, config.DefaultRateLimitPerMin)
	bodyLimit := middleware.NewBodyLimitMiddleware(0)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(d.IsProduction)
	ipLimit := func(scope string) func(http.Handler) http.Handler {
		return middleware.NewIPRateLimitMiddleware(
			d.Limiter, config.AuthRateLimitPerMin, config.AuthRateLimitWindow, scope,
		).Handler
	}

	authHandler := NewAuthHandler(d.Auth)
	profileHandler := NewProfileHandler(d.Profiles, d.Metrics, d.Reviews)
	sessionHandler := NewSessionHandler(d.Sessions, d.Reviews)
	calendarHandler := NewCalendarHandler(d.Calendar)
	eventsHandler := NewEventsHandler(d.Broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeaders.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	// SSE streams outlive the request timeout.
	r.With(authMiddleware.Handler).Get("/api/events", eventsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(bodyLimit.Handler)

		r.Route("/api/auth", func(r chi.Router) {
			r.With(ipLimit("signup")).Post("/signup", authHandler.Signup)
			r.With(ipLimit("login")).Post("/login", authHandler.Login)
			r.With(ipLimit("google")).Post("/google", authHandler.GoogleLogin)
			r.With(ipLimit("password")).Put("/forgot-password", authHandler.ForgotPassword)
			r.With(ipLimit("password")).Put("/reset-password", authHandler.ResetPassword)
			r.With(authMiddleware.Handler).Post("/logout", authHandler.Logout)
		})

		r.Mount("/api/profiles", profileHandler.Routes())
		r.Get("/api/calendar/callback", calendarHandler.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Use(apiRateLimit.Handler)

			r.Get("/api/me", profileHandler.Me)
			r.Put("/api/me", profileHandler.UpdateMe)
			r.Mount("/api/sessions", sessionHandler.Routes())
			r.Get("/api/reviews/{id}", sessionHandler.GetReview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMentor)
				r.Mount("/api/educations", NewResourceHandler(d.Educations).Routes())
				r.Mount("/api/experiences", NewResourceHandler(d.Experiences).Routes())
				r.Mount("/api/certifications", NewResourceHandler(d.Certifications).Routes())
			})
		})
	})

	return r
}
