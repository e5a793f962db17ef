package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/redis"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/service"
	"github.com/mentormatch/mentor-match-go/internal/sse"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

// app holds the long-lived dependencies shared by every subcommand.
type app struct {
	cfg   *config.Config
	db    *database.DB
	redis *redis.Client
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(cfg.IsProduction()); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info().Msg("redis connected")

	return &app{cfg: cfg, db: db, redis: redisClient}, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis")
	}
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

type repositories struct {
	users          repository.UserRepository
	profiles       repository.ProfileRepository
	sessions       repository.SessionRepository
	reviews        repository.ReviewRepository
	tokens         repository.AuthTokenRepository
	resets         repository.PasswordResetRepository
	states         repository.OAuthStateRepository
	creds          repository.CalendarCredentialRepository
	educations     repository.ResourceRepository[model.Education, *model.Education]
	experiences    repository.ResourceRepository[model.Experience, *model.Experience]
	certifications repository.ResourceRepository[model.Certification, *model.Certification]
}

func (a *app) buildRepositories() repositories {
	db := a.db.DB
	return repositories{
		users:          repository.NewUserRepository(db),
		profiles:       repository.NewProfileRepository(db),
		sessions:       repository.NewSessionRepository(db),
		reviews:        repository.NewReviewRepository(db),
		tokens:         repository.NewAuthTokenRepository(db),
		resets:         repository.NewPasswordResetRepository(db),
		states:         repository.NewOAuthStateRepository(db),
		creds:          repository.NewCalendarCredentialRepository(db),
		educations:     repository.NewEducationRepository(db),
		experiences:    repository.NewExperienceRepository(db),
		certifications: repository.NewCertificationRepository(db),
	}
}

func (a *app) featuredCache() service.FeaturedCache {
	return service.NewRedisFeaturedCache(a.redis, a.cfg.FeaturedCacheTTL())
}

type services struct {
	auth           *service.AuthService
	profiles       *service.ProfileService
	metrics        *service.MetricsService
	sessions       *service.SessionService
	reviews        *service.ReviewService
	calendar       *service.GoogleCalendar
	educations     *service.ResourceService[model.Education, *model.Education]
	experiences    *service.ResourceService[model.Experience, *model.Experience]
	certifications *service.ResourceService[model.Certification, *model.Certification]
	limiter        *service.RateLimiter
}

func (a *app) buildServices(repos repositories, broker *sse.Broker) (*services, error) {
	var box *util.SecretBox
	if a.cfg.EncryptionKey != "" {
		b, err := util.NewSecretBox(a.cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		box = b
	} else {
		log.Warn().Msg("ENCRYPTION_KEY not set, calendar refresh tokens will not be stored")
	}
	if !a.cfg.GoogleConfigured() {
		log.Warn().Msg("Google OAuth not configured, Google login and calendar linking are disabled")
	}

	featured := a.featuredCache()
	metrics := service.NewMetricsService(repos.profiles, featured)
	calendar := service.NewGoogleCalendar(
		a.cfg, service.DefaultGoogleEndpoints,
		repos.states, repos.creds, repos.sessions, repos.profiles, repos.users,
		box,
	)

	return &services{
		auth: service.NewAuthService(
			a.cfg, a.db,
			repos.users, repos.profiles, repos.tokens, repos.resets,
			service.NewMailer(a.cfg),
			service.NewGoogleTokenInfo(service.DefaultTokenInfoURL, a.cfg.GoogleClientID),
		),
		profiles: service.NewProfileService(
			repos.profiles, repos.educations, repos.experiences, repos.certifications, featured,
		),
		metrics:        metrics,
		sessions:       service.NewSessionService(repos.sessions, repos.profiles, metrics, calendar, broker),
		reviews:        service.NewReviewService(a.db, repos.sessions, repos.profiles, repos.reviews, metrics, broker),
		calendar:       calendar,
		educations:     service.NewResourceService[model.Education]("Education", repos.educations),
		experiences:    service.NewResourceService[model.Experience]("Experience", repos.experiences),
		certifications: service.NewResourceService[model.Certification]("Certification", repos.certifications),
		limiter:        service.NewRateLimiter(a.redis.Client),
	}, nil
}
