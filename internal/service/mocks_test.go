package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
)

// fakeTx runs fn without a transaction. Mock repositories ignore the nil tx
// handed to WithTx.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	f.calls++
	return fn(nil)
}

type mockSessionRepo struct {
	mock.Mock
}

var _ repository.SessionRepository = (*mockSessionRepo)(nil)

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, update model.SessionStatusUpdate) (*model.Session, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) SetCalendarEventURL(ctx context.Context, id string, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *mockSessionRepo) ListByParticipant(ctx context.Context, params model.SessionListParams) ([]model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) CountByParticipant(ctx context.Context, params model.SessionListParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) ListAcceptedEndedBefore(ctx context.Context, t time.Time, limit int) ([]model.Session, error) {
	args := m.Called(ctx, t, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockProfileRepo struct {
	mock.Mock
}

var _ repository.ProfileRepository = (*mockProfileRepo)(nil)

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) Update(ctx context.Context, id string, params model.UpdateProfileParams) (*model.Profile, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) ListMentors(ctx context.Context, filter model.MentorFilter) ([]model.Profile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockProfileRepo) CountMentors(ctx context.Context, filter model.MentorFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockProfileRepo) ListFeatured(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockProfileRepo) ListSummaries(ctx context.Context, ids []string) ([]model.ParticipantSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ParticipantSummary), args.Error(1)
}

func (m *mockProfileRepo) CountCompletedSessions(ctx context.Context, mentorID string) (int, error) {
	args := m.Called(ctx, mentorID)
	return args.Int(0), args.Error(1)
}

func (m *mockProfileRepo) ListReviewRatings(ctx context.Context, mentorID string) ([]int, error) {
	args := m.Called(ctx, mentorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockProfileRepo) UpdateAggregate(ctx context.Context, id string, agg model.MentorAggregate) error {
	args := m.Called(ctx, id, agg)
	return args.Error(0)
}

func (m *mockProfileRepo) ListMentorIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockProfileRepo) WithTx(tx *sqlx.Tx) repository.ProfileRepository {
	return m
}

type mockReviewRepo struct {
	mock.Mock
}

var _ repository.ReviewRepository = (*mockReviewRepo)(nil)

func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *mockReviewRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Review, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *mockReviewRepo) Create(ctx context.Context, params model.CreateReviewParams) (*model.Review, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *mockReviewRepo) ListForMentor(ctx context.Context, mentorID string, limit, offset int) ([]model.MentorReview, error) {
	args := m.Called(ctx, mentorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MentorReview), args.Error(1)
}

func (m *mockReviewRepo) CountForMentor(ctx context.Context, mentorID string) (int, error) {
	args := m.Called(ctx, mentorID)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepo) WithTx(tx *sqlx.Tx) repository.ReviewRepository {
	return m
}

type mockUserRepo struct {
	mock.Mock
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockAuthTokenRepo struct {
	mock.Mock
}

var _ repository.AuthTokenRepository = (*mockAuthTokenRepo)(nil)

func (m *mockAuthTokenRepo) Create(ctx context.Context, params model.CreateAuthTokenParams) (*model.AuthToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthToken), args.Error(1)
}

func (m *mockAuthTokenRepo) FindValidByHash(ctx context.Context, tokenHash string) (*model.AuthToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthToken), args.Error(1)
}

func (m *mockAuthTokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockAuthTokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAuthTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuthTokenRepo) WithTx(tx *sqlx.Tx) repository.AuthTokenRepository {
	return m
}

type mockPasswordResetRepo struct {
	mock.Mock
}

var _ repository.PasswordResetRepository = (*mockPasswordResetRepo)(nil)

func (m *mockPasswordResetRepo) Create(ctx context.Context, params model.CreatePasswordResetParams) (*model.PasswordReset, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PasswordReset), args.Error(1)
}

func (m *mockPasswordResetRepo) FindActiveByHash(ctx context.Context, tokenHash string) (*model.PasswordReset, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PasswordReset), args.Error(1)
}

func (m *mockPasswordResetRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPasswordResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPasswordResetRepo) WithTx(tx *sqlx.Tx) repository.PasswordResetRepository {
	return m
}

// fakeLinker returns link or err and records the sessions it saw.
type fakeLinker struct {
	link  string
	err   error
	calls []string
}

func (f *fakeLinker) Link(ctx context.Context, s *model.Session) (string, error) {
	f.calls = append(f.calls, s.ID)
	return f.link, f.err
}

type fakeMetrics struct {
	err   error
	calls []string
}

func (f *fakeMetrics) Recompute(ctx context.Context, mentorID string) (model.MentorAggregate, error) {
	f.calls = append(f.calls, mentorID)
	return model.MentorAggregate{}, f.err
}

type publishedEvent struct {
	ProfileID string
	Type      string
	Payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, profileID, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{ProfileID: profileID, Type: eventType, Payload: payload})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memoryFeaturedCache is a FeaturedCache backed by a map.
type memoryFeaturedCache struct {
	pages       map[string]model.Page[model.Profile]
	invalidated int
}

func newMemoryFeaturedCache() *memoryFeaturedCache {
	return &memoryFeaturedCache{pages: map[string]model.Page[model.Profile]{}}
}

func (c *memoryFeaturedCache) Get(ctx context.Context, page, limit int) (model.Page[model.Profile], bool) {
	v, ok := c.pages[pageField(page, limit)]
	return v, ok
}

func (c *memoryFeaturedCache) Set(ctx context.Context, page, limit int, value model.Page[model.Profile]) {
	c.pages[pageField(page, limit)] = value
}

func (c *memoryFeaturedCache) Invalidate(ctx context.Context) {
	c.invalidated++
	c.pages = map[string]model.Page[model.Profile]{}
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeVerifier struct {
	identity *model.GoogleIdentity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, idToken string) (*model.GoogleIdentity, error) {
	return f.identity, f.err
}
