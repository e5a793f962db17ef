package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const (
	MaintenanceJobInterval = time.Minute
	MaintenanceJobTimeout  = 30 * time.Second
)

// Default rate limiting
const (
	DefaultRateLimitPerMin = 120
	AuthRateLimitPerMin    = 10
	AuthRateLimitWindow    = time.Minute
)

// Pagination
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// External HTTP calls (Google OAuth, Calendar, tokeninfo)
const ExternalHTTPTimeout = 10 * time.Second

// OAuth state lifetime for calendar authorisation
const OAuthStateTTL = 30 * time.Minute

// Password rules
const (
	MinPasswordLength = 8
	BcryptCost        = 12
)
