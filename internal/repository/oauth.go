package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error)
	// Consume deletes and returns an unexpired state, so a state can be
	// redeemed once.
	Consume(ctx context.Context, state string) (*model.OAuthState, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type oauthStateRepo struct {
	db database.DBTX
}

func NewOAuthStateRepository(db *sqlx.DB) OAuthStateRepository {
	return &oauthStateRepo{db: db}
}

func (r *oauthStateRepo) Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error) {
	var state model.OAuthState
	err := r.db.GetContext(ctx, &state, `
		INSERT INTO oauth_states (id, state, purpose, session_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ID, params.State, params.Purpose, params.SessionID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *oauthStateRepo) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	var s model.OAuthState
	err := r.db.GetContext(ctx, &s, `
		DELETE FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
		RETURNING *
	`, state)
	return HandleNotFound(&s, err)
}

func (r *oauthStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CalendarCredentialRepository keeps one encrypted Google refresh token per
// mentor profile.
type CalendarCredentialRepository interface {
	FindByProfileID(ctx context.Context, profileID string) (*model.CalendarCredential, error)
	Upsert(ctx context.Context, profileID, refreshTokenEncrypted string) error
	Delete(ctx context.Context, profileID string) error
}

type calendarCredentialRepo struct {
	db database.DBTX
}

func NewCalendarCredentialRepository(db *sqlx.DB) CalendarCredentialRepository {
	return &calendarCredentialRepo{db: db}
}

func (r *calendarCredentialRepo) FindByProfileID(ctx context.Context, profileID string) (*model.CalendarCredential, error) {
	var cred model.CalendarCredential
	err := r.db.GetContext(ctx, &cred, `
		SELECT * FROM calendar_credentials WHERE profile_id = $1
	`, profileID)
	return HandleNotFound(&cred, err)
}

func (r *calendarCredentialRepo) Upsert(ctx context.Context, profileID, refreshTokenEncrypted string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_credentials (profile_id, refresh_token_encrypted)
		VALUES ($1, $2)
		ON CONFLICT (profile_id) DO UPDATE SET
			refresh_token_encrypted = EXCLUDED.refresh_token_encrypted,
			updated_at = $3
	`, profileID, refreshTokenEncrypted, time.Now())
	return err
}

func (r *calendarCredentialRepo) Delete(ctx context.Context, profileID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_credentials WHERE profile_id = $1`, profileID)
	return err
}
