package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/model"
)

const (
	EventSessionCreated       = "session.created"
	EventSessionStatusChanged = "session.status_changed"
	EventSessionReviewed      = "session.reviewed"
)

// EventPublisher delivers an event to the live connections of one profile.
// *sse.Broker implements it.
type EventPublisher interface {
	Publish(ctx context.Context, profileID string, eventType string, payload any) error
}

// notifyParticipants is best-effort: a failed publish is logged and never
// surfaces to the caller.
func notifyParticipants(ctx context.Context, pub EventPublisher, eventType string, session *model.Session, payload any) {
	for _, profileID := range []string{session.FromProfileID, session.ToProfileID} {
		if err := pub.Publish(ctx, profileID, eventType, payload); err != nil {
			log.Warn().
				Err(err).
				Str("sessionId", session.ID).
				Str("profileId", profileID).
				Str("eventType", eventType).
				Msg("failed to publish session event")
		}
	}
}
