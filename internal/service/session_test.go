package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

const (
	menteeID   = "0b8c5a36-4a43-4c2a-9a57-1d6c7c1f0a01"
	mentorID   = "0b8c5a36-4a43-4c2a-9a57-1d6c7c1f0a02"
	strangerID = "0b8c5a36-4a43-4c2a-9a57-1d6c7c1f0a03"
	sessionID  = "5f0e3c1a-2b7d-4e55-8d0a-3a9c2f1b6e10"
)

var sessionStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newSession(status model.SessionStatus) *model.Session {
	return &model.Session{
		ID:            sessionID,
		FromProfileID: menteeID,
		ToProfileID:   mentorID,
		Status:        status,
		Topic:         "Career switch",
		Problem:       "Moving from QA to backend",
		StartDateTime: sessionStart,
		EndDateTime:   sessionStart.Add(time.Hour),
	}
}

func withStatus(s *model.Session, status model.SessionStatus) *model.Session {
	c := *s
	c.Status = status
	return &c
}

type sessionFixture struct {
	sessions *mockSessionRepo
	profiles *mockProfileRepo
	metrics  *fakeMetrics
	linker   *fakeLinker
	events   *recordingPublisher
	svc      *SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions: new(mockSessionRepo),
		profiles: new(mockProfileRepo),
		metrics:  &fakeMetrics{},
		linker:   &fakeLinker{},
		events:   &recordingPublisher{},
	}
	f.svc = NewSessionService(f.sessions, f.profiles, f.metrics, f.linker, f.events)
	f.svc.now = func() time.Time { return sessionStart.Add(-24 * time.Hour) }
	return f
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestSessionService_AcceptStoresCalendarLink(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	pending := newSession(model.SessionStatusPending)
	f.linker.link = "https://calendar.google.com/event?eid=abc"

	f.sessions.On("FindByID", ctx, sessionID).Return(pending, nil)
	f.sessions.On("UpdateStatus", ctx, model.SessionStatusUpdate{
		ID: sessionID, Expected: model.SessionStatusPending, Next: model.SessionStatusAccepted,
	}).Return(withStatus(pending, model.SessionStatusAccepted), nil)
	f.sessions.On("SetCalendarEventURL", ctx, sessionID, f.linker.link).Return(nil)

	got, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusAccepted, mentorID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusAccepted, got.Status)
	require.NotNil(t, got.CalendarEventURL)
	assert.Equal(t, f.linker.link, *got.CalendarEventURL)
	assert.Equal(t, []string{sessionID}, f.linker.calls)
	assert.Equal(t, []string{EventSessionStatusChanged, EventSessionStatusChanged}, f.events.types())
	assert.Empty(t, f.metrics.calls)
	f.sessions.AssertExpectations(t)
}

func TestSessionService_AcceptSurvivesLinkerFailure(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	pending := newSession(model.SessionStatusPending)
	f.linker.err = ErrCalendarNotConfigured

	f.sessions.On("FindByID", ctx, sessionID).Return(pending, nil)
	f.sessions.On("UpdateStatus", ctx, mock.Anything).
		Return(withStatus(pending, model.SessionStatusAccepted), nil)

	got, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusAccepted, mentorID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusAccepted, got.Status)
	assert.Nil(t, got.CalendarEventURL)
	f.sessions.AssertNotCalled(t, "SetCalendarEventURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_AcceptSurvivesLinkStoreFailure(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	pending := newSession(model.SessionStatusPending)
	f.linker.link = "https://accounts.google.com/o/oauth2/auth?state=x"

	f.sessions.On("FindByID", ctx, sessionID).Return(pending, nil)
	f.sessions.On("UpdateStatus", ctx, mock.Anything).
		Return(withStatus(pending, model.SessionStatusAccepted), nil)
	f.sessions.On("SetCalendarEventURL", ctx, sessionID, mock.Anything).Return(assert.AnError)

	got, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusAccepted, mentorID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAccepted, got.Status)
	assert.Nil(t, got.CalendarEventURL)
}

func TestSessionService_WrongActor(t *testing.T) {
	tests := []struct {
		name  string
		from  model.SessionStatus
		next  model.SessionStatus
		actor string
		code  apperrors.ErrorCode
	}{
		{"mentee cannot accept", model.SessionStatusPending, model.SessionStatusAccepted, menteeID, apperrors.ErrCodeUnauthorizedActor},
		{"mentor cannot cancel", model.SessionStatusPending, model.SessionStatusCancelled, mentorID, apperrors.ErrCodeUnauthorizedActor},
		{"stranger cannot decline", model.SessionStatusPending, model.SessionStatusDeclined, strangerID, apperrors.ErrCodeUnauthorizedActor},
		{"pending cannot jump to completed", model.SessionStatusPending, model.SessionStatusCompleted, menteeID, apperrors.ErrCodeInvalidTransition},
		{"reviewed only through a review", model.SessionStatusCompleted, model.SessionStatusReviewed, menteeID, apperrors.ErrCodeInvalidTransition},
		{"declined is terminal", model.SessionStatusDeclined, model.SessionStatusAccepted, mentorID, apperrors.ErrCodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			ctx := context.Background()
			f.sessions.On("FindByID", ctx, sessionID).Return(newSession(tt.from), nil)

			_, err := f.svc.UpdateStatus(ctx, sessionID, tt.next, tt.actor)
			requireCode(t, err, tt.code)

			f.sessions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
			assert.Empty(t, f.linker.calls)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestSessionService_PendingToCompletedMessage(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusPending), nil)

	_, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusCompleted, mentorID)
	appErr := requireCode(t, err, apperrors.ErrCodeInvalidTransition)
	assert.Equal(t, "Cannot change session status from pending to completed", appErr.Message)
}

func TestSessionService_LostRaceIsInvalidTransition(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusPending), nil)
	f.sessions.On("UpdateStatus", ctx, mock.Anything).Return(nil, nil)

	_, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusDeclined, mentorID)
	requireCode(t, err, apperrors.ErrCodeInvalidTransition)
	assert.Empty(t, f.events.types())
}

func TestSessionService_CompleteRecomputesMentor(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	accepted := newSession(model.SessionStatusAccepted)

	f.sessions.On("FindByID", ctx, sessionID).Return(accepted, nil)
	f.sessions.On("UpdateStatus", ctx, model.SessionStatusUpdate{
		ID: sessionID, Expected: model.SessionStatusAccepted, Next: model.SessionStatusCompleted,
	}).Return(withStatus(accepted, model.SessionStatusCompleted), nil)

	got, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusCompleted, menteeID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, got.Status)
	assert.Equal(t, []string{mentorID}, f.metrics.calls)
}

func TestSessionService_RecomputeFailureDoesNotFailTransition(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	accepted := newSession(model.SessionStatusAccepted)
	f.metrics.err = assert.AnError

	f.sessions.On("FindByID", ctx, sessionID).Return(accepted, nil)
	f.sessions.On("UpdateStatus", ctx, mock.Anything).
		Return(withStatus(accepted, model.SessionStatusCompleted), nil)

	got, err := f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusCompleted, mentorID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, got.Status)
}

func TestSessionService_UpdateStatusValidation(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, sessionID, "archived", mentorID)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)

	_, err = f.svc.UpdateStatus(ctx, "not-a-uuid", model.SessionStatusAccepted, mentorID)
	requireCode(t, err, apperrors.ErrCodeNotFound)

	f.sessions.On("FindByID", ctx, sessionID).Return(nil, nil)
	_, err = f.svc.UpdateStatus(ctx, sessionID, model.SessionStatusAccepted, mentorID)
	requireCode(t, err, apperrors.ErrCodeNotFound)
}

func validCreateInput() CreateSessionInput {
	return CreateSessionInput{
		To:            mentorID,
		Topic:         " Career switch ",
		Problem:       "Moving from QA to backend",
		StartDateTime: sessionStart,
		EndDateTime:   sessionStart.Add(time.Hour),
	}
}

func TestSessionService_Create(t *testing.T) {
	t.Run("creates a pending request to a mentor", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()

		f.profiles.On("FindByID", ctx, mentorID).Return(&model.Profile{ID: mentorID, IsMentor: true}, nil)
		f.sessions.On("Create", ctx, mock.MatchedBy(func(p model.CreateSessionParams) bool {
			return p.FromProfileID == menteeID && p.ToProfileID == mentorID && p.Topic == "Career switch" && p.ID != ""
		})).Return(newSession(model.SessionStatusPending), nil)

		got, err := f.svc.Create(ctx, menteeID, validCreateInput())
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusPending, got.Status)
		assert.Equal(t, []string{EventSessionCreated, EventSessionCreated}, f.events.types())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.profiles.On("FindByID", ctx, mentorID).Return(nil, nil)

		_, err := f.svc.Create(ctx, menteeID, validCreateInput())
		requireCode(t, err, apperrors.ErrCodeNotFound)
	})

	t.Run("recipient must be a mentor", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.profiles.On("FindByID", ctx, mentorID).Return(&model.Profile{ID: mentorID}, nil)

		_, err := f.svc.Create(ctx, menteeID, validCreateInput())
		requireCode(t, err, apperrors.ErrCodeValidation)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("input validation", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()

		self := validCreateInput()
		self.To = menteeID
		_, err := f.svc.Create(ctx, menteeID, self)
		requireCode(t, err, apperrors.ErrCodeValidation)

		noTopic := validCreateInput()
		noTopic.Topic = "  "
		_, err = f.svc.Create(ctx, menteeID, noTopic)
		requireCode(t, err, apperrors.ErrCodeMissingRequired)

		backwards := validCreateInput()
		backwards.EndDateTime = backwards.StartDateTime
		_, err = f.svc.Create(ctx, menteeID, backwards)
		requireCode(t, err, apperrors.ErrCodeValidation)
	})
}

func TestSessionService_Get(t *testing.T) {
	t.Run("non participant is forbidden", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusPending), nil)

		_, err := f.svc.Get(ctx, sessionID, strangerID)
		requireCode(t, err, apperrors.ErrCodeForbidden)
	})

	t.Run("ended accepted session completes on view", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.svc.now = func() time.Time { return sessionStart.Add(2 * time.Hour) }
		accepted := newSession(model.SessionStatusAccepted)

		f.sessions.On("FindByID", ctx, sessionID).Return(accepted, nil)
		f.sessions.On("UpdateStatus", ctx, model.SessionStatusUpdate{
			ID: sessionID, Expected: model.SessionStatusAccepted, Next: model.SessionStatusCompleted,
		}).Return(withStatus(accepted, model.SessionStatusCompleted), nil)

		got, err := f.svc.Get(ctx, sessionID, menteeID)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusCompleted, got.Status)
		assert.Equal(t, []string{mentorID}, f.metrics.calls)
	})

	t.Run("future accepted session is untouched", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusAccepted), nil)

		got, err := f.svc.Get(ctx, sessionID, mentorID)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAccepted, got.Status)
		f.sessions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})
}

func TestSessionService_List(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.List(ctx, menteeID, "bogus", 1, 10)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)

	params := model.SessionListParams{ProfileID: menteeID, Status: model.SessionStatusPending, Limit: 10, Offset: 10}
	f.sessions.On("ListByParticipant", ctx, params).Return([]model.Session{*newSession(model.SessionStatusPending)}, nil)
	f.sessions.On("CountByParticipant", ctx, params).Return(11, nil)
	f.profiles.On("ListSummaries", ctx, []string{menteeID, mentorID}).Return([]model.ParticipantSummary{
		{ID: menteeID, Name: "Mina"},
		{ID: mentorID, Name: "Theo"},
	}, nil)

	page, err := f.svc.List(ctx, menteeID, model.SessionStatusPending, 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 11, page.Count)
	assert.Equal(t, 2, page.TotalPages)
	require.NotNil(t, page.Items[0].FromProfile)
	require.NotNil(t, page.Items[0].ToProfile)
	assert.Equal(t, "Mina", page.Items[0].FromProfile.Name)
	assert.Equal(t, "Theo", page.Items[0].ToProfile.Name)
}

func TestSessionService_ListRejectsBadPaging(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
	}{
		{"page zero", 0, 10},
		{"negative page", -3, 10},
		{"limit zero", 1, 0},
		{"limit above max", 1, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			_, err := f.svc.List(context.Background(), menteeID, model.SessionStatusPending, tt.page, tt.limit)
			requireCode(t, err, apperrors.ErrCodeInvalidInput)
			f.sessions.AssertNotCalled(t, "ListByParticipant", mock.Anything, mock.Anything)
		})
	}
}

func TestSessionService_ListMissingParticipant(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	f.sessions.On("ListByParticipant", ctx, mock.Anything).Return([]model.Session{*newSession(model.SessionStatusPending)}, nil)
	f.sessions.On("CountByParticipant", ctx, mock.Anything).Return(1, nil)
	f.profiles.On("ListSummaries", ctx, mock.Anything).Return([]model.ParticipantSummary{{ID: mentorID, Name: "Theo"}}, nil)

	page, err := f.svc.List(ctx, menteeID, model.SessionStatusPending, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.Items[0].FromProfile)
	assert.Equal(t, "Theo", page.Items[0].ToProfile.Name)
}

func TestSessionService_Detail(t *testing.T) {
	summaries := []model.ParticipantSummary{{ID: menteeID, Name: "Mina"}, {ID: mentorID, Name: "Theo"}}

	tests := []struct {
		name   string
		viewer string
		want   []model.SessionStatus
	}{
		{"mentor sees decide buttons", mentorID, []model.SessionStatus{model.SessionStatusAccepted, model.SessionStatusDeclined}},
		{"mentee may only cancel", menteeID, []model.SessionStatus{model.SessionStatusCancelled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			ctx := context.Background()
			f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusPending), nil)
			f.profiles.On("ListSummaries", ctx, []string{menteeID, mentorID}).Return(summaries, nil)

			detail, err := f.svc.Detail(ctx, sessionID, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, detail.AllowedStatuses)
			assert.Equal(t, "Mina", detail.FromProfile.Name)
			assert.Equal(t, "Theo", detail.ToProfile.Name)
		})
	}

	t.Run("terminal session offers nothing", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusDeclined), nil)
		f.profiles.On("ListSummaries", ctx, mock.Anything).Return(summaries, nil)

		detail, err := f.svc.Detail(ctx, sessionID, menteeID)
		require.NoError(t, err)
		assert.NotNil(t, detail.AllowedStatuses)
		assert.Empty(t, detail.AllowedStatuses)
	})

	t.Run("non participant is forbidden", func(t *testing.T) {
		f := newSessionFixture()
		ctx := context.Background()
		f.sessions.On("FindByID", ctx, sessionID).Return(newSession(model.SessionStatusPending), nil)

		_, err := f.svc.Detail(ctx, sessionID, strangerID)
		requireCode(t, err, apperrors.ErrCodeForbidden)
		f.profiles.AssertNotCalled(t, "ListSummaries", mock.Anything, mock.Anything)
	})
}

func TestSessionService_AutoCompleteDue(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	now := sessionStart.Add(3 * time.Hour)
	f.svc.now = func() time.Time { return now }

	first := *newSession(model.SessionStatusAccepted)
	second := *newSession(model.SessionStatusAccepted)
	second.ID = "5f0e3c1a-2b7d-4e55-8d0a-3a9c2f1b6e11"

	f.sessions.On("ListAcceptedEndedBefore", ctx, now, autoCompleteBatch).Return([]model.Session{first, second}, nil)
	f.sessions.On("UpdateStatus", ctx, mock.MatchedBy(func(u model.SessionStatusUpdate) bool { return u.ID == first.ID })).
		Return(withStatus(&first, model.SessionStatusCompleted), nil)
	// cancelled by the requester in the meantime
	f.sessions.On("UpdateStatus", ctx, mock.MatchedBy(func(u model.SessionStatusUpdate) bool { return u.ID == second.ID })).
		Return(nil, nil)

	n, err := f.svc.AutoCompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{mentorID}, f.metrics.calls)
}
