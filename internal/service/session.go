package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/lifecycle"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

const autoCompleteBatch = 100

// CreateSessionInput is the body of a session request.
type CreateSessionInput struct {
	To            string    `json:"to"`
	Topic         string    `json:"topic"`
	Problem       string    `json:"problem"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
}

func (in CreateSessionInput) validate(fromProfileID string) error {
	if in.To == "" {
		return apperrors.MissingRequired("to")
	}
	if !util.IsValidUUID(in.To) {
		return apperrors.InvalidInput("to", "must be a valid id")
	}
	if in.To == fromProfileID {
		return apperrors.ValidationError("Cannot request a session with yourself")
	}
	if strings.TrimSpace(in.Topic) == "" {
		return apperrors.MissingRequired("topic")
	}
	if strings.TrimSpace(in.Problem) == "" {
		return apperrors.MissingRequired("problem")
	}
	if in.StartDateTime.IsZero() {
		return apperrors.MissingRequired("startDateTime")
	}
	if in.EndDateTime.IsZero() {
		return apperrors.MissingRequired("endDateTime")
	}
	if !in.EndDateTime.After(in.StartDateTime) {
		return apperrors.ValidationError("endDateTime must be after startDateTime")
	}
	return nil
}

// SessionService drives sessions through their lifecycle and runs the side
// effects of each status change.
type SessionService struct {
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	metrics  MetricsRecomputer
	linker   CalendarLinker
	events   EventPublisher
	now      func() time.Time
}

func NewSessionService(
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	metrics MetricsRecomputer,
	linker CalendarLinker,
	events EventPublisher,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		profiles: profiles,
		metrics:  metrics,
		linker:   linker,
		events:   events,
		now:      time.Now,
	}
}

// Create opens a pending session request from fromProfileID to a mentor.
func (s *SessionService) Create(ctx context.Context, fromProfileID string, in CreateSessionInput) (*model.Session, error) {
	if err := in.validate(fromProfileID); err != nil {
		return nil, err
	}

	recipient, err := s.profiles.FindByID(ctx, in.To)
	if err != nil {
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	if recipient == nil {
		return nil, apperrors.NotFound("Mentor")
	}
	if !recipient.IsMentor {
		return nil, apperrors.ValidationError("Sessions can only be requested from mentors")
	}

	session, err := s.sessions.Create(ctx, model.CreateSessionParams{
		ID:            util.NewID(),
		FromProfileID: fromProfileID,
		ToProfileID:   in.To,
		Topic:         strings.TrimSpace(in.Topic),
		Problem:       strings.TrimSpace(in.Problem),
		StartDateTime: in.StartDateTime,
		EndDateTime:   in.EndDateTime,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("from", session.FromProfileID).
		Str("to", session.ToProfileID).
		Msg("session requested")

	notifyParticipants(ctx, s.events, EventSessionCreated, session, session)
	return session, nil
}

// Get returns a session to one of its participants. An accepted session
// whose end time has passed is completed on the way out.
func (s *SessionService) Get(ctx context.Context, id, viewerProfileID string) (*model.Session, error) {
	session, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(viewerProfileID) {
		return nil, apperrors.Forbidden("Only session participants can view this session")
	}

	if lifecycle.DueForCompletion(session, s.now()) {
		completed, err := s.apply(ctx, session, model.SessionStatusCompleted, lifecycle.SystemActor(), lifecycle.TriggerSchedule)
		switch {
		case err == nil:
			return completed, nil
		case apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition):
			// someone else moved it first
			return s.find(ctx, id)
		default:
			return nil, err
		}
	}
	return session, nil
}

// Detail is Get with both participants resolved and the statuses the viewer
// may request next.
func (s *SessionService) Detail(ctx context.Context, id, viewerProfileID string) (*model.SessionDetail, error) {
	session, err := s.Get(ctx, id, viewerProfileID)
	if err != nil {
		return nil, err
	}

	views, err := withParticipants(ctx, s.profiles, []model.Session{*session})
	if err != nil {
		return nil, err
	}

	allowed := lifecycle.Allowed(session, lifecycle.ProfileActor(viewerProfileID))
	if allowed == nil {
		allowed = []model.SessionStatus{}
	}
	return &model.SessionDetail{SessionView: views[0], AllowedStatuses: allowed}, nil
}

// List pages through the sessions profileID takes part in, newest first.
func (s *SessionService) List(ctx context.Context, profileID string, status model.SessionStatus, page, limit int) (model.Page[model.SessionView], error) {
	if !status.Valid() {
		return model.Page[model.SessionView]{}, apperrors.InvalidInput("status", "unknown session status")
	}
	offset, err := pageOffset(page, limit)
	if err != nil {
		return model.Page[model.SessionView]{}, err
	}

	params := model.SessionListParams{
		ProfileID: profileID,
		Status:    status,
		Limit:     limit,
		Offset:    offset,
	}

	sessions, err := s.sessions.ListByParticipant(ctx, params)
	if err != nil {
		return model.Page[model.SessionView]{}, fmt.Errorf("list sessions: %w", err)
	}
	count, err := s.sessions.CountByParticipant(ctx, params)
	if err != nil {
		return model.Page[model.SessionView]{}, fmt.Errorf("count sessions: %w", err)
	}
	views, err := withParticipants(ctx, s.profiles, sessions)
	if err != nil {
		return model.Page[model.SessionView]{}, err
	}

	return model.NewPage(views, count, page, limit), nil
}

// UpdateStatus is the explicit status change requested by a participant.
func (s *SessionService) UpdateStatus(ctx context.Context, id string, next model.SessionStatus, actorProfileID string) (*model.Session, error) {
	if !next.Valid() {
		return nil, apperrors.InvalidInput("status", "unknown session status")
	}

	session, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, session, next, lifecycle.ProfileActor(actorProfileID), lifecycle.TriggerStatusUpdate)
}

// AutoCompleteDue completes accepted sessions whose end time has passed and
// returns how many it moved.
func (s *SessionService) AutoCompleteDue(ctx context.Context) (int64, error) {
	due, err := s.sessions.ListAcceptedEndedBefore(ctx, s.now(), autoCompleteBatch)
	if err != nil {
		return 0, fmt.Errorf("list due sessions: %w", err)
	}

	var completed int64
	for i := range due {
		_, err := s.apply(ctx, &due[i], model.SessionStatusCompleted, lifecycle.SystemActor(), lifecycle.TriggerSchedule)
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
			continue
		}
		if err != nil {
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (s *SessionService) find(ctx context.Context, id string) (*model.Session, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Session")
	}
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

// apply validates the transition, persists it with a compare-and-swap on
// the status it was validated against, then runs the side effects. Nothing
// after the swap can undo it.
func (s *SessionService) apply(ctx context.Context, session *model.Session, requested model.SessionStatus, actor lifecycle.Actor, trigger lifecycle.Trigger) (*model.Session, error) {
	next, err := lifecycle.Transition(session, requested, actor, trigger)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessions.UpdateStatus(ctx, model.SessionStatusUpdate{
		ID:       session.ID,
		Expected: session.Status,
		Next:     next,
	})
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	if updated == nil {
		return nil, apperrors.InvalidTransition(string(session.Status), string(next))
	}

	log.Info().
		Str("sessionId", updated.ID).
		Str("from", string(session.Status)).
		Str("to", string(next)).
		Bool("system", actor.System).
		Msg("session status changed")

	switch next {
	case model.SessionStatusAccepted:
		s.attachCalendarLink(ctx, updated)
	case model.SessionStatusCompleted:
		s.recompute(ctx, updated.ToProfileID)
	}

	notifyParticipants(ctx, s.events, EventSessionStatusChanged, updated, updated)
	return updated, nil
}

// attachCalendarLink never fails the transition; without a link the
// session simply has no calendarEventUrl.
func (s *SessionService) attachCalendarLink(ctx context.Context, session *model.Session) {
	link, err := s.linker.Link(ctx, session)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("calendar link unavailable")
		return
	}

	if err := s.sessions.SetCalendarEventURL(ctx, session.ID, link); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("failed to store calendar link")
		return
	}
	session.CalendarEventURL = &link
}

// recompute failures are logged; the status change is already durable and
// the next recompute (or the recompute-metrics command) repairs the numbers.
func (s *SessionService) recompute(ctx context.Context, mentorID string) {
	if _, err := s.metrics.Recompute(ctx, mentorID); err != nil {
		log.Error().Err(err).Str("profileId", mentorID).Msg("mentor metric recompute failed")
	}
}
