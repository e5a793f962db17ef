package model

import (
	"time"
)

// Session is a requested or scheduled 1:1 meeting between a mentee (From)
// and a mentor (To).
type Session struct {
	ID               string        `db:"id" json:"id"`
	FromProfileID    string        `db:"from_profile_id" json:"from"`
	ToProfileID      string        `db:"to_profile_id" json:"to"`
	Status           SessionStatus `db:"status" json:"status"`
	Topic            string        `db:"topic" json:"topic"`
	Problem          string        `db:"problem" json:"problem"`
	StartDateTime    time.Time     `db:"start_date_time" json:"startDateTime"`
	EndDateTime      time.Time     `db:"end_date_time" json:"endDateTime"`
	CalendarEventURL *string       `db:"calendar_event_url" json:"calendarEventUrl,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// IsParticipant reports whether profileID is the requester or the recipient.
func (s *Session) IsParticipant(profileID string) bool {
	return profileID != "" && (s.FromProfileID == profileID || s.ToProfileID == profileID)
}

// HasEnded reports whether the scheduled end time is at or before now.
func (s *Session) HasEnded(now time.Time) bool {
	return !now.Before(s.EndDateTime)
}

type CreateSessionParams struct {
	ID            string
	FromProfileID string
	ToProfileID   string
	Topic         string
	Problem       string
	StartDateTime time.Time
	EndDateTime   time.Time
}

// SessionStatusUpdate is a compare-and-swap: it applies only while the row
// still has status Expected.
type SessionStatusUpdate struct {
	ID       string
	Expected SessionStatus
	Next     SessionStatus
}

type SessionListParams struct {
	ProfileID string
	Status    SessionStatus
	Limit     int
	Offset    int
}

// ParticipantSummary is the slice of a profile shown next to a session.
type ParticipantSummary struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl"`
}

// SessionView is a session with both participants resolved. A participant
// whose profile no longer exists is left nil.
type SessionView struct {
	Session
	FromProfile *ParticipantSummary `json:"fromProfile"`
	ToProfile   *ParticipantSummary `json:"toProfile"`
}

// SessionDetail is what a participant sees for a single session, including
// the statuses they may move it to next.
type SessionDetail struct {
	SessionView
	AllowedStatuses []SessionStatus `json:"allowedStatuses"`
}
