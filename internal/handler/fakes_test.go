package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/service"
	"github.com/mentormatch/mentor-match-go/internal/sse"
)

const (
	menteeID  = "11111111-1111-4111-8111-111111111111"
	mentorID  = "22222222-2222-4222-8222-222222222222"
	sessionID = "33333333-3333-4333-8333-333333333333"

	menteeToken = "mentee-token"
	mentorToken = "mentor-token"
)

var (
	mentee = &model.Profile{ID: menteeID, UserID: "user-mentee", Name: "Grace", IsMentor: false}
	mentor = &model.Profile{ID: mentorID, UserID: "user-mentor", Name: "Ada", IsMentor: true}
)

type fakeAuth struct {
	signupFunc         func(ctx context.Context, in service.SignupInput) (*service.AuthResult, error)
	loginFunc          func(ctx context.Context, email, password string) (*service.AuthResult, error)
	googleLoginFunc    func(ctx context.Context, idToken string) (*service.AuthResult, error)
	logoutFunc         func(ctx context.Context, token string) error
	forgotPasswordFunc func(ctx context.Context, email string) error
	resetPasswordFunc  func(ctx context.Context, token, newPassword string) error
}

func (f *fakeAuth) Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error) {
	return f.signupFunc(ctx, in)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return f.loginFunc(ctx, email, password)
}

func (f *fakeAuth) GoogleLogin(ctx context.Context, idToken string) (*service.AuthResult, error) {
	return f.googleLoginFunc(ctx, idToken)
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	if f.logoutFunc != nil {
		return f.logoutFunc(ctx, token)
	}
	return nil
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, email string) error {
	return f.forgotPasswordFunc(ctx, email)
}

func (f *fakeAuth) ResetPassword(ctx context.Context, token, newPassword string) error {
	return f.resetPasswordFunc(ctx, token, newPassword)
}

// Authenticate knows two fixed bearer tokens.
func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*model.User, *model.Profile, error) {
	switch token {
	case menteeToken:
		return &model.User{ID: mentee.UserID}, mentee, nil
	case mentorToken:
		return &model.User{ID: mentor.UserID}, mentor, nil
	}
	return nil, nil, nil
}

type fakeProfiles struct {
	listMentorsFunc func(ctx context.Context, filter model.MentorFilter, page, limit int) (model.Page[model.Profile], error)
	featuredFunc    func(ctx context.Context, page, limit int) (model.Page[model.Profile], error)
	getDetailFunc   func(ctx context.Context, id string) (*model.ProfileDetail, error)
	updateMeFunc    func(ctx context.Context, profileID string, params model.UpdateProfileParams) (*model.Profile, error)
}

func (f *fakeProfiles) ListMentors(ctx context.Context, filter model.MentorFilter, page, limit int) (model.Page[model.Profile], error) {
	return f.listMentorsFunc(ctx, filter, page, limit)
}

func (f *fakeProfiles) Featured(ctx context.Context, page, limit int) (model.Page[model.Profile], error) {
	return f.featuredFunc(ctx, page, limit)
}

func (f *fakeProfiles) GetDetail(ctx context.Context, id string) (*model.ProfileDetail, error) {
	return f.getDetailFunc(ctx, id)
}

func (f *fakeProfiles) UpdateMe(ctx context.Context, profileID string, params model.UpdateProfileParams) (*model.Profile, error) {
	return f.updateMeFunc(ctx, profileID, params)
}

type fakeMetrics struct {
	aggregateFunc func(ctx context.Context, profileID string) (model.MentorAggregate, error)
}

func (f *fakeMetrics) Aggregate(ctx context.Context, profileID string) (model.MentorAggregate, error) {
	return f.aggregateFunc(ctx, profileID)
}

type fakeSessions struct {
	createFunc       func(ctx context.Context, fromProfileID string, in service.CreateSessionInput) (*model.Session, error)
	detailFunc       func(ctx context.Context, id, viewerProfileID string) (*model.SessionDetail, error)
	listFunc         func(ctx context.Context, profileID string, status model.SessionStatus, page, limit int) (model.Page[model.SessionView], error)
	updateStatusFunc func(ctx context.Context, id string, next model.SessionStatus, actorProfileID string) (*model.Session, error)
}

func (f *fakeSessions) Create(ctx context.Context, fromProfileID string, in service.CreateSessionInput) (*model.Session, error) {
	return f.createFunc(ctx, fromProfileID, in)
}

func (f *fakeSessions) Detail(ctx context.Context, id, viewerProfileID string) (*model.SessionDetail, error) {
	return f.detailFunc(ctx, id, viewerProfileID)
}

func (f *fakeSessions) List(ctx context.Context, profileID string, status model.SessionStatus, page, limit int) (model.Page[model.SessionView], error) {
	return f.listFunc(ctx, profileID, status, page, limit)
}

func (f *fakeSessions) UpdateStatus(ctx context.Context, id string, next model.SessionStatus, actorProfileID string) (*model.Session, error) {
	return f.updateStatusFunc(ctx, id, next, actorProfileID)
}

type fakeReviews struct {
	createFunc        func(ctx context.Context, sessionID string, in service.CreateReviewInput, actorProfileID string) (*model.Review, error)
	getFunc           func(ctx context.Context, id string) (*model.ReviewDetail, error)
	listForMentorFunc func(ctx context.Context, mentorID string, page, limit int) (model.Page[model.MentorReview], error)
}

func (f *fakeReviews) Create(ctx context.Context, sessionID string, in service.CreateReviewInput, actorProfileID string) (*model.Review, error) {
	return f.createFunc(ctx, sessionID, in, actorProfileID)
}

func (f *fakeReviews) Get(ctx context.Context, id string) (*model.ReviewDetail, error) {
	return f.getFunc(ctx, id)
}

func (f *fakeReviews) ListForMentor(ctx context.Context, mentorID string, page, limit int) (model.Page[model.MentorReview], error) {
	return f.listForMentorFunc(ctx, mentorID, page, limit)
}

// fakeResources keeps items in memory keyed by id; ownership is checked the
// same way the service does it.
type fakeResources[T any, PT model.ResourcePtr[T]] struct {
	items map[string]PT
	next  int
}

func newFakeResources[T any, PT model.ResourcePtr[T]]() *fakeResources[T, PT] {
	return &fakeResources[T, PT]{items: map[string]PT{}}
}

func (f *fakeResources[T, PT]) List(ctx context.Context, profileID string, page, limit int) (model.Page[T], error) {
	var out []T
	for _, item := range f.items {
		if item.Base().ProfileID == profileID {
			out = append(out, *item)
		}
	}
	return model.NewPage(out, len(out), page, limit), nil
}

func (f *fakeResources[T, PT]) Get(ctx context.Context, id, profileID string) (PT, error) {
	item, ok := f.items[id]
	if !ok || item.Base().ProfileID != profileID {
		return nil, apperrors.NotFound("Resource")
	}
	return item, nil
}

func (f *fakeResources[T, PT]) Create(ctx context.Context, profileID string, item PT) (PT, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	base := item.Base()
	f.next++
	base.ID = fmt.Sprintf("res-%d", f.next)
	base.ProfileID = profileID
	f.items[base.ID] = item
	return item, nil
}

func (f *fakeResources[T, PT]) Update(ctx context.Context, id, profileID string, item PT) (PT, error) {
	if _, err := f.Get(ctx, id, profileID); err != nil {
		return nil, err
	}
	item.Base().ID = id
	item.Base().ProfileID = profileID
	f.items[id] = item
	return item, nil
}

func (f *fakeResources[T, PT]) Delete(ctx context.Context, id, profileID string) error {
	if _, err := f.Get(ctx, id, profileID); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

type fakeCalendar struct {
	handleCallbackFunc func(ctx context.Context, code, state string) (string, error)
}

func (f *fakeCalendar) HandleCallback(ctx context.Context, code, state string) (string, error) {
	return f.handleCallbackFunc(ctx, code, state)
}

// fakeBroker hands out pre-built clients so tests can feed events.
type fakeBroker struct {
	client       *sse.Client
	subscribed   []string
	unsubscribed int
}

func (b *fakeBroker) Subscribe(profileID string) *sse.Client {
	b.subscribed = append(b.subscribed, profileID)
	if b.client == nil {
		b.client = &sse.Client{ProfileID: profileID, Events: make(chan sse.Event, 4), Done: make(chan struct{})}
	}
	return b.client
}

func (b *fakeBroker) Unsubscribe(client *sse.Client) {
	b.unsubscribed++
}

type allowAllLimiter struct{}

func (allowAllLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) service.RateLimitDecision {
	return service.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: time.Now().Add(window)}
}

type testDeps struct {
	auth           *fakeAuth
	profiles       *fakeProfiles
	metrics        *fakeMetrics
	sessions       *fakeSessions
	reviews        *fakeReviews
	educations     *fakeResources[model.Education, *model.Education]
	experiences    *fakeResources[model.Experience, *model.Experience]
	certifications *fakeResources[model.Certification, *model.Certification]
	calendar       *fakeCalendar
	broker         *fakeBroker
}

func newTestDeps() *testDeps {
	return &testDeps{
		auth:           &fakeAuth{},
		profiles:       &fakeProfiles{},
		metrics:        &fakeMetrics{},
		sessions:       &fakeSessions{},
		reviews:        &fakeReviews{},
		educations:     newFakeResources[model.Education](),
		experiences:    newFakeResources[model.Experience](),
		certifications: newFakeResources[model.Certification](),
		calendar:       &fakeCalendar{},
		broker:         &fakeBroker{},
	}
}

func (d *testDeps) router() http.Handler {
	return NewRouter(RouterDeps{
		Auth:           d.auth,
		Profiles:       d.profiles,
		Metrics:        d.metrics,
		Sessions:       d.sessions,
		Reviews:        d.reviews,
		Educations:     d.educations,
		Experiences:    d.experiences,
		Certifications: d.certifications,
		Calendar:       d.calendar,
		Broker:         d.broker,
		Limiter:        allowAllLimiter{},
	})
}

// do sends a request through the full router. token may be empty.
func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
