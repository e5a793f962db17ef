package model

import "time"

const (
	DefaultFacebookLink  = "https://www.facebook.com/"
	DefaultInstagramLink = "https://www.instagram.com/"
	DefaultLinkedinLink  = "https://www.linkedin.com/"
	DefaultTwitterLink   = "https://twitter.com/home"
)

// Profile is the public mentor/mentee identity of a user. The aggregate
// fields are derived and only written by metric recomputation.
type Profile struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"userId"`
	Name                string    `db:"name" json:"name"`
	IsMentor            bool      `db:"is_mentor" json:"isMentor"`
	AvatarURL           string    `db:"avatar_url" json:"avatarUrl"`
	AboutMe             string    `db:"about_me" json:"aboutMe"`
	City                string    `db:"city" json:"city"`
	FacebookLink        string    `db:"facebook_link" json:"facebookLink"`
	InstagramLink       string    `db:"instagram_link" json:"instagramLink"`
	LinkedinLink        string    `db:"linkedin_link" json:"linkedinLink"`
	TwitterLink         string    `db:"twitter_link" json:"twitterLink"`
	CurrentCompany      string    `db:"current_company" json:"currentCompany"`
	CurrentPosition     string    `db:"current_position" json:"currentPosition"`
	SessionCount        int       `db:"session_count" json:"sessionCount"`
	ReviewCount         int       `db:"review_count" json:"reviewCount"`
	ReviewAverageRating float64   `db:"review_average_rating" json:"reviewAverageRating"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// Aggregate projects the derived metric fields.
func (p *Profile) Aggregate() MentorAggregate {
	return MentorAggregate{
		SessionCount:        p.SessionCount,
		ReviewCount:         p.ReviewCount,
		ReviewAverageRating: p.ReviewAverageRating,
	}
}

type MentorAggregate struct {
	SessionCount        int     `json:"sessionCount"`
	ReviewCount         int     `json:"reviewCount"`
	ReviewAverageRating float64 `json:"reviewAverageRating"`
}

// ProfileDetail is a profile with its non-deleted resources.
type ProfileDetail struct {
	Profile
	Educations     []Education     `json:"education"`
	Experiences    []Experience    `json:"experiences"`
	Certifications []Certification `json:"certifications"`
}

type CreateProfileParams struct {
	ID       string
	UserID   string
	Name     string
	IsMentor bool
}

// UpdateProfileParams carries the user-editable fields; nil means unchanged.
type UpdateProfileParams struct {
	Name            *string `json:"name"`
	AvatarURL       *string `json:"avatarUrl"`
	AboutMe         *string `json:"aboutMe"`
	City            *string `json:"city"`
	FacebookLink    *string `json:"facebookLink"`
	InstagramLink   *string `json:"instagramLink"`
	LinkedinLink    *string `json:"linkedinLink"`
	TwitterLink     *string `json:"twitterLink"`
	CurrentCompany  *string `json:"currentCompany"`
	CurrentPosition *string `json:"currentPosition"`
}

type MentorFilter struct {
	SearchQuery string
	Company     string
	Position    string
	City        string
	SortBy      MentorSort
	Limit       int
	Offset      int
}
