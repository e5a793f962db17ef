package model

import (
	"time"
)

type OAuthState struct {
	ID        string            `db:"id"`
	State     string            `db:"state"`
	Purpose   OAuthStatePurpose `db:"purpose"`
	SessionID *string           `db:"session_id"`
	ExpiresAt time.Time         `db:"expires_at"`
	CreatedAt time.Time         `db:"created_at"`
}

type CreateOAuthStateParams struct {
	ID        string
	State     string
	Purpose   OAuthStatePurpose
	SessionID *string
	ExpiresAt time.Time
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type CalendarCredential struct {
	ProfileID             string    `db:"profile_id"`
	RefreshTokenEncrypted string    `db:"refresh_token_encrypted"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

// CalendarEvent is what gets written to the mentor's calendar for an
// accepted session.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}
