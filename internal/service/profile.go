package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

type ProfileService struct {
	profiles       repository.ProfileRepository
	educations     repository.ResourceRepository[model.Education, *model.Education]
	experiences    repository.ResourceRepository[model.Experience, *model.Experience]
	certifications repository.ResourceRepository[model.Certification, *model.Certification]
	featured       FeaturedCache
}

func NewProfileService(
	profiles repository.ProfileRepository,
	educations repository.ResourceRepository[model.Education, *model.Education],
	experiences repository.ResourceRepository[model.Experience, *model.Experience],
	certifications repository.ResourceRepository[model.Certification, *model.Certification],
	featured FeaturedCache,
) *ProfileService {
	return &ProfileService{
		profiles:       profiles,
		educations:     educations,
		experiences:    experiences,
		certifications: certifications,
		featured:       featured,
	}
}

func (s *ProfileService) ListMentors(ctx context.Context, filter model.MentorFilter, page, limit int) (model.Page[model.Profile], error) {
	offset, err := pageOffset(page, limit)
	if err != nil {
		return model.Page[model.Profile]{}, err
	}
	filter.Limit = limit
	filter.Offset = offset

	profiles, err := s.profiles.ListMentors(ctx, filter)
	if err != nil {
		return model.Page[model.Profile]{}, fmt.Errorf("list mentors: %w", err)
	}
	count, err := s.profiles.CountMentors(ctx, filter)
	if err != nil {
		return model.Page[model.Profile]{}, fmt.Errorf("count mentors: %w", err)
	}
	return model.NewPage(profiles, count, page, limit), nil
}

// Featured serves the busiest mentors, from cache when possible.
func (s *ProfileService) Featured(ctx context.Context, page, limit int) (model.Page[model.Profile], error) {
	offset, err := pageOffset(page, limit)
	if err != nil {
		return model.Page[model.Profile]{}, err
	}
	if cached, ok := s.featured.Get(ctx, page, limit); ok {
		return cached, nil
	}

	profiles, err := s.profiles.ListFeatured(ctx, limit, offset)
	if err != nil {
		return model.Page[model.Profile]{}, fmt.Errorf("list featured: %w", err)
	}
	count, err := s.profiles.CountMentors(ctx, model.MentorFilter{})
	if err != nil {
		return model.Page[model.Profile]{}, fmt.Errorf("count mentors: %w", err)
	}

	result := model.NewPage(profiles, count, page, limit)
	s.featured.Set(ctx, page, limit, result)
	return result, nil
}

// GetDetail loads a profile together with its live resources.
func (s *ProfileService) GetDetail(ctx context.Context, id string) (*model.ProfileDetail, error) {
	profile, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.ProfileDetail{Profile: *profile}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.educations.ListByProfile(gctx, id, 0, 0)
		if err != nil {
			return fmt.Errorf("list educations: %w", err)
		}
		detail.Educations = nonNil(items)
		return nil
	})
	g.Go(func() error {
		items, err := s.experiences.ListByProfile(gctx, id, 0, 0)
		if err != nil {
			return fmt.Errorf("list experiences: %w", err)
		}
		detail.Experiences = nonNil(items)
		return nil
	})
	g.Go(func() error {
		items, err := s.certifications.ListByProfile(gctx, id, 0, 0)
		if err != nil {
			return fmt.Errorf("list certifications: %w", err)
		}
		detail.Certifications = nonNil(items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	return s.find(ctx, id)
}

// UpdateMe applies the editable fields. Aggregates are not part of
// UpdateProfileParams and cannot be written here.
func (s *ProfileService) UpdateMe(ctx context.Context, profileID string, params model.UpdateProfileParams) (*model.Profile, error) {
	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			return nil, apperrors.InvalidInput("name", "must not be empty")
		}
		params.Name = &trimmed
	}

	urls := []struct {
		field string
		value *string
	}{
		{"avatarUrl", params.AvatarURL},
		{"facebookLink", params.FacebookLink},
		{"instagramLink", params.InstagramLink},
		{"linkedinLink", params.LinkedinLink},
		{"twitterLink", params.TwitterLink},
	}
	for _, u := range urls {
		if u.value != nil && *u.value != "" && !util.IsValidURL(*u.value) {
			return nil, apperrors.InvalidInput(u.field, "must be an absolute http(s) URL")
		}
	}

	profile, err := s.profiles.Update(ctx, profileID, params)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("Profile")
	}

	if profile.IsMentor {
		s.featured.Invalidate(ctx)
	}
	return profile, nil
}

func (s *ProfileService) find(ctx context.Context, id string) (*model.Profile, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Profile")
	}
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("Profile")
	}
	return profile, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
