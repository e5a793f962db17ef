package model

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusAccepted  SessionStatus = "accepted"
	SessionStatusDeclined  SessionStatus = "declined"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusReviewed  SessionStatus = "reviewed"
)

var SessionStatuses = []SessionStatus{
	SessionStatusPending,
	SessionStatusAccepted,
	SessionStatusDeclined,
	SessionStatusCancelled,
	SessionStatusCompleted,
	SessionStatusReviewed,
}

func (s SessionStatus) Valid() bool {
	for _, v := range SessionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusDeclined, SessionStatusCancelled, SessionStatusReviewed:
		return true
	}
	return false
}

// MentorSort selects the ordering of the mentor directory.
type MentorSort string

const (
	MentorSortReviewDesc  MentorSort = "reviewDesc"
	MentorSortSessionDesc MentorSort = "sessionDesc"
	MentorSortNewest      MentorSort = "newest"
)

func ParseMentorSort(v string) (MentorSort, bool) {
	switch MentorSort(v) {
	case "", MentorSortReviewDesc:
		return MentorSortReviewDesc, true
	case MentorSortSessionDesc:
		return MentorSortSessionDesc, true
	case MentorSortNewest:
		return MentorSortNewest, true
	}
	return "", false
}

// OAuthStatePurpose tags what an OAuth round trip was started for.
type OAuthStatePurpose string

const (
	OAuthPurposeCalendar OAuthStatePurpose = "calendar"
)
