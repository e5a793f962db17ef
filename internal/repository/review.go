package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

type ReviewRepository interface {
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Review, error)
	Create(ctx context.Context, params model.CreateReviewParams) (*model.Review, error)
	ListForMentor(ctx context.Context, mentorID string, limit, offset int) ([]model.MentorReview, error)
	CountForMentor(ctx context.Context, mentorID string) (int, error)
	WithTx(tx *sqlx.Tx) ReviewRepository
}

type reviewRepo struct {
	db database.DBTX
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) WithTx(tx *sqlx.Tx) ReviewRepository {
	return &reviewRepo{db: tx}
}

func (r *reviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE id = $1`, id)
	return HandleNotFound(&review, err)
}

func (r *reviewRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Review, error) {
	var review model.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE session_id = $1`, sessionID)
	return HandleNotFound(&review, err)
}

func (r *reviewRepo) Create(ctx context.Context, params model.CreateReviewParams) (*model.Review, error) {
	var review model.Review
	err := r.db.GetContext(ctx, &review, `
		INSERT INTO reviews (id, session_id, content, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.SessionID, params.Content, params.Rating)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ListForMentor(ctx context.Context, mentorID string, limit, offset int) ([]model.MentorReview, error) {
	var reviews []model.MentorReview
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT r.*, s.from_profile_id, s.topic
		FROM reviews r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.to_profile_id = $1 AND s.status = 'reviewed'
		ORDER BY r.created_at DESC, r.id
		LIMIT $2 OFFSET $3
	`, mentorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepo) CountForMentor(ctx context.Context, mentorID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM reviews r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.to_profile_id = $1 AND s.status = 'reviewed'
	`, mentorID)
	return count, err
}
