package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// UpdateStatus applies the update only while the row still has the
	// expected status. It returns nil when another writer got there first.
	UpdateStatus(ctx context.Context, update model.SessionStatusUpdate) (*model.Session, error)
	SetCalendarEventURL(ctx context.Context, id string, url string) error
	ListByParticipant(ctx context.Context, params model.SessionListParams) ([]model.Session, error)
	CountByParticipant(ctx context.Context, params model.SessionListParams) (int, error)
	ListAcceptedEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Session, error)
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE id = $1`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (id, from_profile_id, to_profile_id, status, topic, problem, start_date_time, end_date_time)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7)
		RETURNING *
	`, params.ID, params.FromProfileID, params.ToProfileID, params.Topic, params.Problem,
		params.StartDateTime, params.EndDateTime)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, u model.SessionStatusUpdate) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = $3,
			updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING *
	`, u.ID, u.Expected, u.Next, time.Now())
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) SetCalendarEventURL(ctx context.Context, id string, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET calendar_event_url = $2, updated_at = $3 WHERE id = $1
	`, id, url, time.Now())
	return err
}

func (r *sessionRepo) ListByParticipant(ctx context.Context, p model.SessionListParams) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE (from_profile_id = $1 OR to_profile_id = $1)
		AND status = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`, p.ProfileID, p.Status, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) CountByParticipant(ctx context.Context, p model.SessionListParams) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sessions
		WHERE (from_profile_id = $1 OR to_profile_id = $1)
		AND status = $2
	`, p.ProfileID, p.Status)
	return count, err
}

func (r *sessionRepo) ListAcceptedEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE status = 'accepted' AND end_date_time <= $1
		ORDER BY end_date_time
		LIMIT $2
	`, t, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
