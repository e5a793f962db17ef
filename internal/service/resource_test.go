package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
)

const certificationID = "7d6c5b4a-3928-4716-a5b4-c3d2e1f0a9b8"

type mockCertificationRepo struct {
	mock.Mock
}

var _ repository.ResourceRepository[model.Certification, *model.Certification] = (*mockCertificationRepo)(nil)

func (m *mockCertificationRepo) FindByID(ctx context.Context, id string) (*model.Certification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Certification), args.Error(1)
}

func (m *mockCertificationRepo) ListByProfile(ctx context.Context, profileID string, limit, offset int) ([]model.Certification, error) {
	args := m.Called(ctx, profileID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Certification), args.Error(1)
}

func (m *mockCertificationRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	args := m.Called(ctx, profileID)
	return args.Int(0), args.Error(1)
}

func (m *mockCertificationRepo) Create(ctx context.Context, item *model.Certification) (*model.Certification, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Certification), args.Error(1)
}

func (m *mockCertificationRepo) Update(ctx context.Context, item *model.Certification) (*model.Certification, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Certification), args.Error(1)
}

func (m *mockCertificationRepo) SoftDelete(ctx context.Context, id, profileID string) (bool, error) {
	args := m.Called(ctx, id, profileID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCertificationRepo) WithTx(tx *sqlx.Tx) repository.ResourceRepository[model.Certification, *model.Certification] {
	return m
}

func newCertificationService() (*mockCertificationRepo, *ResourceService[model.Certification, *model.Certification]) {
	repo := new(mockCertificationRepo)
	return repo, NewResourceService[model.Certification]("Certification", repo)
}

func TestResourceService_CreateAssignsOwner(t *testing.T) {
	repo, svc := newCertificationService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(c *model.Certification) bool {
		return c.ProfileID == mentorID && c.ID != "" && c.ID != "client-chosen" && !c.IsDeleted
	})).Return(&model.Certification{Name: "CKA", ResourceBase: model.ResourceBase{ID: certificationID, ProfileID: mentorID}}, nil)

	in := &model.Certification{Name: "CKA", ResourceBase: model.ResourceBase{ID: "client-chosen", ProfileID: strangerID, IsDeleted: true}}
	got, err := svc.Create(ctx, mentorID, in)
	require.NoError(t, err)
	assert.Equal(t, mentorID, got.ProfileID)
}

func TestResourceService_CreateValidates(t *testing.T) {
	repo, svc := newCertificationService()

	_, err := svc.Create(context.Background(), mentorID, &model.Certification{})
	requireCode(t, err, apperrors.ErrCodeMissingRequired)

	_, err = svc.Create(context.Background(), mentorID, &model.Certification{Name: "CKA", URL: "ftp://x"})
	requireCode(t, err, apperrors.ErrCodeInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResourceService_GetIsOwnerScoped(t *testing.T) {
	repo, svc := newCertificationService()
	ctx := context.Background()

	owned := &model.Certification{Name: "CKA", ResourceBase: model.ResourceBase{ID: certificationID, ProfileID: mentorID}}
	repo.On("FindByID", ctx, certificationID).Return(owned, nil)

	got, err := svc.Get(ctx, certificationID, mentorID)
	require.NoError(t, err)
	assert.Equal(t, "CKA", got.Name)

	_, err = svc.Get(ctx, certificationID, strangerID)
	appErr := requireCode(t, err, apperrors.ErrCodeNotFound)
	assert.Equal(t, "Certification not found", appErr.Message)
}

func TestResourceService_UpdateMissingIsNotFound(t *testing.T) {
	repo, svc := newCertificationService()
	ctx := context.Background()
	repo.On("Update", ctx, mock.MatchedBy(func(c *model.Certification) bool {
		return c.ID == certificationID && c.ProfileID == strangerID
	})).Return(nil, nil)

	_, err := svc.Update(ctx, certificationID, strangerID, &model.Certification{Name: "CKA"})
	requireCode(t, err, apperrors.ErrCodeNotFound)
}

func TestResourceService_Delete(t *testing.T) {
	repo, svc := newCertificationService()
	ctx := context.Background()
	repo.On("SoftDelete", ctx, certificationID, mentorID).Return(true, nil).Once()
	repo.On("SoftDelete", ctx, certificationID, mentorID).Return(false, nil).Once()

	require.NoError(t, svc.Delete(ctx, certificationID, mentorID))

	err := svc.Delete(ctx, certificationID, mentorID)
	requireCode(t, err, apperrors.ErrCodeNotFound)
}

func TestResourceService_List(t *testing.T) {
	repo, svc := newCertificationService()
	ctx := context.Background()
	repo.On("ListByProfile", ctx, mentorID, 10, 0).Return([]model.Certification{{Name: "CKA"}}, nil)
	repo.On("CountByProfile", ctx, mentorID).Return(1, nil)

	page, err := svc.List(ctx, mentorID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.TotalPages)

	_, err = svc.List(ctx, mentorID, 1, 500)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)
	repo.AssertNumberOfCalls(t, "ListByProfile", 1)
}
