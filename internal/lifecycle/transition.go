// Package lifecycle holds the session status state machine: which status
// changes exist and who may trigger each of them.
package lifecycle

import (
	"time"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// Role is the part an actor plays in a session.
type Role uint8

const (
	RoleRequester Role = 1 << iota
	RoleRecipient
	RoleSystem
)

// Trigger says how a transition was requested. Some edges may only be taken
// through a specific trigger (a session becomes reviewed only by creating a
// review).
type Trigger uint8

const (
	TriggerStatusUpdate Trigger = iota
	TriggerReview
	TriggerSchedule
)

// Actor is whoever asks for the transition: a participant profile, or the
// scheduler.
type Actor struct {
	ProfileID string
	System    bool
}

// ProfileActor is a participant (or would-be participant) acting through
// the API.
func ProfileActor(profileID string) Actor { return Actor{ProfileID: profileID} }

// SystemActor is the scheduler completing elapsed sessions.
func SystemActor() Actor { return Actor{System: true} }

type rule struct {
	roles   Role
	trigger Trigger
}

var table = map[model.SessionStatus]map[model.SessionStatus]rule{
	model.SessionStatusPending: {
		model.SessionStatusAccepted:  {roles: RoleRecipient, trigger: TriggerStatusUpdate},
		model.SessionStatusDeclined:  {roles: RoleRecipient, trigger: TriggerStatusUpdate},
		model.SessionStatusCancelled: {roles: RoleRequester, trigger: TriggerStatusUpdate},
	},
	model.SessionStatusAccepted: {
		model.SessionStatusCompleted: {roles: RoleRequester | RoleRecipient | RoleSystem, trigger: TriggerStatusUpdate},
		model.SessionStatusCancelled: {roles: RoleRequester, trigger: TriggerStatusUpdate},
	},
	model.SessionStatusCompleted: {
		model.SessionStatusReviewed: {roles: RoleRequester, trigger: TriggerReview},
	},
}

// Transition decides whether actor may move s to next through trigger. On
// success it returns next; otherwise an UnauthorizedActor or
// InvalidTransition AppError. It never mutates s.
func Transition(s *model.Session, next model.SessionStatus, actor Actor, trigger Trigger) (model.SessionStatus, error) {
	role, ok := roleOf(s, actor)
	if !ok {
		return s.Status, apperrors.UnauthorizedActor("Only session participants can change its status")
	}

	r, ok := table[s.Status][next]
	if !ok || !triggerAllowed(r.trigger, trigger) {
		return s.Status, apperrors.InvalidTransition(string(s.Status), string(next))
	}

	if r.roles&role == 0 {
		return s.Status, apperrors.UnauthorizedActor(deniedMessage(next))
	}

	return next, nil
}

// Allowed lists the statuses actor could move s to with an explicit status
// update. Clients use it to decide which buttons to show.
func Allowed(s *model.Session, actor Actor) []model.SessionStatus {
	var out []model.SessionStatus
	for _, next := range model.SessionStatuses {
		if _, err := Transition(s, next, actor, TriggerStatusUpdate); err == nil {
			out = append(out, next)
		}
	}
	return out
}

// DueForCompletion reports whether the scheduler should complete s.
func DueForCompletion(s *model.Session, now time.Time) bool {
	return s.Status == model.SessionStatusAccepted && s.HasEnded(now)
}

func roleOf(s *model.Session, actor Actor) (Role, bool) {
	switch {
	case actor.System:
		return RoleSystem, true
	case actor.ProfileID == "":
		return 0, false
	case actor.ProfileID == s.FromProfileID:
		return RoleRequester, true
	case actor.ProfileID == s.ToProfileID:
		return RoleRecipient, true
	}
	return 0, false
}

// A scheduled completion is an ordinary status update performed by the
// system.
func triggerAllowed(required, got Trigger) bool {
	if got == TriggerSchedule {
		got = TriggerStatusUpdate
	}
	return required == got
}

func deniedMessage(next model.SessionStatus) string {
	switch next {
	case model.SessionStatusAccepted, model.SessionStatusDeclined:
		return "Only the mentor can " + verb(next) + " this session"
	case model.SessionStatusCancelled, model.SessionStatusReviewed:
		return "Only the requester can " + verb(next) + " this session"
	}
	return "Not allowed to change this session"
}

func verb(s model.SessionStatus) string {
	switch s {
	case model.SessionStatusAccepted:
		return "accept"
	case model.SessionStatusDeclined:
		return "decline"
	case model.SessionStatusCancelled:
		return "cancel"
	case model.SessionStatusReviewed:
		return "review"
	}
	return "update"
}
