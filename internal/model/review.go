package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session"`
	Content   string    `db:"content" json:"content"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateReviewParams struct {
	ID        string
	SessionID string
	Content   string
	Rating    int
}

// MentorReview is a review joined with the session it belongs to, as shown on
// a mentor's page.
type MentorReview struct {
	Review
	FromProfileID string `db:"from_profile_id" json:"from"`
	Topic         string `db:"topic" json:"topic"`
}

// ReviewDetail is a review with its session resolved. The embedded
// session object takes the "session" key in place of the bare id.
type ReviewDetail struct {
	Review
	Session SessionView `json:"session"`
}
