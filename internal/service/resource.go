package service

import (
	"context"
	"fmt"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

// ResourceService is the owner-scoped CRUD shared by educations,
// experiences and certifications. Entries of other profiles and deleted
// entries both look like NotFound.
type ResourceService[T any, PT model.ResourcePtr[T]] struct {
	name string
	repo repository.ResourceRepository[T, PT]
}

func NewResourceService[T any, PT model.ResourcePtr[T]](name string, repo repository.ResourceRepository[T, PT]) *ResourceService[T, PT] {
	return &ResourceService[T, PT]{name: name, repo: repo}
}

func (s *ResourceService[T, PT]) Name() string {
	return s.name
}

func (s *ResourceService[T, PT]) List(ctx context.Context, profileID string, page, limit int) (model.Page[T], error) {
	offset, err := pageOffset(page, limit)
	if err != nil {
		return model.Page[T]{}, err
	}
	items, err := s.repo.ListByProfile(ctx, profileID, limit, offset)
	if err != nil {
		return model.Page[T]{}, fmt.Errorf("list %s: %w", s.name, err)
	}
	count, err := s.repo.CountByProfile(ctx, profileID)
	if err != nil {
		return model.Page[T]{}, fmt.Errorf("count %s: %w", s.name, err)
	}
	return model.NewPage(items, count, page, limit), nil
}

func (s *ResourceService[T, PT]) Get(ctx context.Context, id, profileID string) (PT, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound(s.name)
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.name, err)
	}
	if item == nil || item.Base().ProfileID != profileID {
		return nil, apperrors.NotFound(s.name)
	}
	return item, nil
}

// Create ignores any id or owner in the payload.
func (s *ResourceService[T, PT]) Create(ctx context.Context, profileID string, item PT) (PT, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	base := item.Base()
	base.ID = util.NewID()
	base.ProfileID = profileID
	base.IsDeleted = false

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.name, err)
	}
	return created, nil
}

func (s *ResourceService[T, PT]) Update(ctx context.Context, id, profileID string, item PT) (PT, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound(s.name)
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	base := item.Base()
	base.ID = id
	base.ProfileID = profileID

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.name, err)
	}
	if updated == nil {
		return nil, apperrors.NotFound(s.name)
	}
	return updated, nil
}

func (s *ResourceService[T, PT]) Delete(ctx context.Context, id, profileID string) error {
	if !util.IsValidUUID(id) {
		return apperrors.NotFound(s.name)
	}
	ok, err := s.repo.SoftDelete(ctx, id, profileID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.name, err)
	}
	if !ok {
		return apperrors.NotFound(s.name)
	}
	return nil
}
