package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/database"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/lifecycle"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

// CreateReviewInput is the body of a review for a completed session.
type CreateReviewInput struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

func (in CreateReviewInput) validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return apperrors.MissingRequired("content")
	}
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return apperrors.InvalidInput("rating", fmt.Sprintf("must be between %d and %d", model.MinRating, model.MaxRating))
	}
	return nil
}

// ReviewService attaches reviews to sessions and serves them back.
type ReviewService struct {
	tx       database.Transactor
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	reviews  repository.ReviewRepository
	metrics  MetricsRecomputer
	events   EventPublisher
}

func NewReviewService(
	tx database.Transactor,
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	reviews repository.ReviewRepository,
	metrics MetricsRecomputer,
	events EventPublisher,
) *ReviewService {
	return &ReviewService{
		tx:       tx,
		sessions: sessions,
		profiles: profiles,
		reviews:  reviews,
		metrics:  metrics,
		events:   events,
	}
}

// Create attaches the one review a completed session can have. The status
// swap to reviewed and the insert commit together, so a review never exists
// for a session that is not reviewed.
func (s *ReviewService) Create(ctx context.Context, sessionID string, in CreateReviewInput, actorProfileID string) (*model.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !util.IsValidUUID(sessionID) {
		return nil, apperrors.NotFound("Session")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	next, err := lifecycle.Transition(session, model.SessionStatusReviewed, lifecycle.ProfileActor(actorProfileID), lifecycle.TriggerReview)
	if err != nil {
		return nil, err
	}

	var review *model.Review
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := s.sessions.WithTx(tx).UpdateStatus(ctx, model.SessionStatusUpdate{
			ID:       session.ID,
			Expected: session.Status,
			Next:     next,
		})
		if err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		if updated == nil {
			return apperrors.InvalidTransition(string(session.Status), string(next))
		}
		session = updated

		review, err = s.reviews.WithTx(tx).Create(ctx, model.CreateReviewParams{
			ID:        util.NewID(),
			SessionID: session.ID,
			Content:   strings.TrimSpace(in.Content),
			Rating:    in.Rating,
		})
		if repository.IsUniqueViolation(err) {
			return apperrors.InvalidTransition(string(model.SessionStatusReviewed), string(model.SessionStatusReviewed))
		}
		if err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("reviewId", review.ID).
		Int("rating", review.Rating).
		Msg("session reviewed")

	if _, err := s.metrics.Recompute(ctx, session.ToProfileID); err != nil {
		log.Error().Err(err).Str("profileId", session.ToProfileID).Msg("mentor metric recompute failed")
	}

	notifyParticipants(ctx, s.events, EventSessionReviewed, session, map[string]any{
		"session": session,
		"review":  review,
	})
	return review, nil
}

// Get returns a review together with the session it belongs to.
func (s *ReviewService) Get(ctx context.Context, id string) (*model.ReviewDetail, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Review")
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NotFound("Review")
	}

	session, err := s.sessions.FindByID(ctx, review.SessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	views, err := withParticipants(ctx, s.profiles, []model.Session{*session})
	if err != nil {
		return nil, err
	}

	return &model.ReviewDetail{Review: *review, Session: views[0]}, nil
}

func (s *ReviewService) ListForMentor(ctx context.Context, mentorID string, page, limit int) (model.Page[model.MentorReview], error) {
	offset, err := pageOffset(page, limit)
	if err != nil {
		return model.Page[model.MentorReview]{}, err
	}
	reviews, err := s.reviews.ListForMentor(ctx, mentorID, limit, offset)
	if err != nil {
		return model.Page[model.MentorReview]{}, fmt.Errorf("list reviews: %w", err)
	}
	count, err := s.reviews.CountForMentor(ctx, mentorID)
	if err != nil {
		return model.Page[model.MentorReview]{}, fmt.Errorf("count reviews: %w", err)
	}
	return model.NewPage(reviews, count, page, limit), nil
}
