package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
)

// MetricsRecomputer rebuilds a mentor's aggregate fields from durable data.
type MetricsRecomputer interface {
	Recompute(ctx context.Context, mentorID string) (model.MentorAggregate, error)
}

// ComputeAggregate is the pure part of recomputation: completedSessions is
// the number of the mentor's sessions in status completed, ratings are the
// ratings of reviews attached to the mentor's reviewed sessions.
func ComputeAggregate(completedSessions int, ratings []int) model.MentorAggregate {
	agg := model.MentorAggregate{
		SessionCount: completedSessions,
		ReviewCount:  len(ratings),
	}
	if len(ratings) == 0 {
		return agg
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	agg.ReviewAverageRating = float64(sum) / float64(len(ratings))
	return agg
}

type MetricsService struct {
	profiles repository.ProfileRepository
	featured FeaturedCache
}

func NewMetricsService(profiles repository.ProfileRepository, featured FeaturedCache) *MetricsService {
	return &MetricsService{profiles: profiles, featured: featured}
}

// Recompute always does a full recompute and persists the three fields in
// one update, so running it twice without intervening changes is a no-op.
func (s *MetricsService) Recompute(ctx context.Context, mentorID string) (model.MentorAggregate, error) {
	completed, err := s.profiles.CountCompletedSessions(ctx, mentorID)
	if err != nil {
		return model.MentorAggregate{}, fmt.Errorf("count completed sessions: %w", err)
	}

	ratings, err := s.profiles.ListReviewRatings(ctx, mentorID)
	if err != nil {
		return model.MentorAggregate{}, fmt.Errorf("list review ratings: %w", err)
	}

	agg := ComputeAggregate(completed, ratings)
	if err := s.profiles.UpdateAggregate(ctx, mentorID, agg); err != nil {
		return model.MentorAggregate{}, fmt.Errorf("update aggregate: %w", err)
	}

	s.featured.Invalidate(ctx)

	log.Debug().
		Str("profileId", mentorID).
		Int("sessionCount", agg.SessionCount).
		Int("reviewCount", agg.ReviewCount).
		Float64("reviewAverageRating", agg.ReviewAverageRating).
		Msg("mentor metrics recomputed")

	return agg, nil
}

// RecomputeAll recomputes every mentor, or only ids when given. It returns
// how many profiles were updated.
func (s *MetricsService) RecomputeAll(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		var err error
		ids, err = s.profiles.ListMentorIDs(ctx)
		if err != nil {
			return 0, fmt.Errorf("list mentors: %w", err)
		}
	}

	for i, id := range ids {
		if _, err := s.Recompute(ctx, id); err != nil {
			return i, fmt.Errorf("recompute %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// Aggregate is the read-only projection of the last recompute.
func (s *MetricsService) Aggregate(ctx context.Context, profileID string) (model.MentorAggregate, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return model.MentorAggregate{}, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return model.MentorAggregate{}, apperrors.NotFound("Profile")
	}
	return profile.Aggregate(), nil
}
