package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// AuthTokenRepository stores hashed bearer tokens.
type AuthTokenRepository interface {
	Create(ctx context.Context, params model.CreateAuthTokenParams) (*model.AuthToken, error)
	FindValidByHash(ctx context.Context, tokenHash string) (*model.AuthToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) AuthTokenRepository
}

type authTokenRepo struct {
	db database.DBTX
}

func NewAuthTokenRepository(db *sqlx.DB) AuthTokenRepository {
	return &authTokenRepo{db: db}
}

func (r *authTokenRepo) WithTx(tx *sqlx.Tx) AuthTokenRepository {
	return &authTokenRepo{db: tx}
}

func (r *authTokenRepo) Create(ctx context.Context, params model.CreateAuthTokenParams) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO auth_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *authTokenRepo) FindValidByHash(ctx context.Context, tokenHash string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM auth_tokens WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *authTokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

func (r *authTokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *authTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PasswordResetRepository stores single-use reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, params model.CreatePasswordResetParams) (*model.PasswordReset, error)
	FindActiveByHash(ctx context.Context, tokenHash string) (*model.PasswordReset, error)
	// MarkUsed returns false when the reset was already consumed.
	MarkUsed(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) PasswordResetRepository
}

type passwordResetRepo struct {
	db database.DBTX
}

func NewPasswordResetRepository(db *sqlx.DB) PasswordResetRepository {
	return &passwordResetRepo{db: db}
}

func (r *passwordResetRepo) WithTx(tx *sqlx.Tx) PasswordResetRepository {
	return &passwordResetRepo{db: tx}
}

func (r *passwordResetRepo) Create(ctx context.Context, params model.CreatePasswordResetParams) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.db.GetContext(ctx, &reset, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepo) FindActiveByHash(ctx context.Context, tokenHash string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.db.GetContext(ctx, &reset, `
		SELECT * FROM password_resets
		WHERE token_hash = $1
		AND used_at IS NULL
		AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&reset, err)
}

func (r *passwordResetRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE password_resets SET used_at = $2 WHERE id = $1 AND used_at IS NULL
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *passwordResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM password_resets WHERE expires_at < NOW() OR used_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
