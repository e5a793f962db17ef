package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error)
	Update(ctx context.Context, id string, params model.UpdateProfileParams) (*model.Profile, error)
	ListMentors(ctx context.Context, filter model.MentorFilter) ([]model.Profile, error)
	CountMentors(ctx context.Context, filter model.MentorFilter) (int, error)
	ListFeatured(ctx context.Context, limit, offset int) ([]model.Profile, error)
	// ListSummaries returns the summaries of the given profiles that exist,
	// in no particular order.
	ListSummaries(ctx context.Context, ids []string) ([]model.ParticipantSummary, error)

	// Metric inputs and output. Only recomputation writes the aggregate.
	CountCompletedSessions(ctx context.Context, mentorID string) (int, error)
	ListReviewRatings(ctx context.Context, mentorID string) ([]int, error)
	UpdateAggregate(ctx context.Context, id string, agg model.MentorAggregate) error
	ListMentorIDs(ctx context.Context) ([]string, error)

	WithTx(tx *sqlx.Tx) ProfileRepository
}

type profileRepo struct {
	db database.DBTX
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) WithTx(tx *sqlx.Tx) ProfileRepository {
	return &profileRepo{db: tx}
}

func (r *profileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE id = $1`, id)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO profiles (id, user_id, name, is_mentor)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.UserID, params.Name, params.IsMentor)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) Update(ctx context.Context, id string, p model.UpdateProfileParams) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		UPDATE profiles SET
			name = COALESCE($2, name),
			avatar_url = COALESCE($3, avatar_url),
			about_me = COALESCE($4, about_me),
			city = COALESCE($5, city),
			facebook_link = COALESCE($6, facebook_link),
			instagram_link = COALESCE($7, instagram_link),
			linkedin_link = COALESCE($8, linkedin_link),
			twitter_link = COALESCE($9, twitter_link),
			current_company = COALESCE($10, current_company),
			current_position = COALESCE($11, current_position),
			updated_at = $12
		WHERE id = $1
		RETURNING *
	`, id, p.Name, p.AvatarURL, p.AboutMe, p.City, p.FacebookLink, p.InstagramLink,
		p.LinkedinLink, p.TwitterLink, p.CurrentCompany, p.CurrentPosition, time.Now())
	return HandleNotFound(&profile, err)
}

// An empty pattern disables the corresponding filter.
const mentorFilterWhere = `
	WHERE is_mentor
	AND ($1 = '' OR name ILIKE $1)
	AND ($2 = '' OR current_company ILIKE $2)
	AND ($3 = '' OR current_position ILIKE $3)
	AND ($4 = '' OR city ILIKE $4)
`

var mentorOrderBy = map[model.MentorSort]string{
	model.MentorSortReviewDesc:  ` ORDER BY review_average_rating DESC, review_count DESC, created_at DESC, id`,
	model.MentorSortSessionDesc: ` ORDER BY session_count DESC, created_at DESC, id`,
	model.MentorSortNewest:      ` ORDER BY created_at DESC, id`,
}

func mentorFilterArgs(f model.MentorFilter) []any {
	return []any{
		ContainsPattern(f.SearchQuery),
		ContainsPattern(f.Company),
		ContainsPattern(f.Position),
		ContainsPattern(f.City),
	}
}

func (r *profileRepo) ListMentors(ctx context.Context, filter model.MentorFilter) ([]model.Profile, error) {
	orderBy, ok := mentorOrderBy[filter.SortBy]
	if !ok {
		orderBy = mentorOrderBy[model.MentorSortReviewDesc]
	}

	args := append(mentorFilterArgs(filter), filter.Limit, filter.Offset)
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM profiles`+mentorFilterWhere+orderBy+` LIMIT $5 OFFSET $6`,
		args...)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) CountMentors(ctx context.Context, filter model.MentorFilter) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM profiles`+mentorFilterWhere,
		mentorFilterArgs(filter)...)
	return count, err
}

func (r *profileRepo) ListFeatured(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		WHERE is_mentor
		ORDER BY session_count DESC, review_average_rating DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) ListSummaries(ctx context.Context, ids []string) ([]model.ParticipantSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var summaries []model.ParticipantSummary
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT id, name, avatar_url FROM profiles WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *profileRepo) CountCompletedSessions(ctx context.Context, mentorID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sessions WHERE to_profile_id = $1 AND status = 'completed'
	`, mentorID)
	return count, err
}

func (r *profileRepo) ListReviewRatings(ctx context.Context, mentorID string) ([]int, error) {
	var ratings []int
	err := r.db.SelectContext(ctx, &ratings, `
		SELECT r.rating FROM reviews r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.to_profile_id = $1 AND s.status = 'reviewed'
	`, mentorID)
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *profileRepo) UpdateAggregate(ctx context.Context, id string, agg model.MentorAggregate) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET
			session_count = $2,
			review_count = $3,
			review_average_rating = $4,
			updated_at = $5
		WHERE id = $1
	`, id, agg.SessionCount, agg.ReviewCount, agg.ReviewAverageRating, time.Now())
	return err
}

func (r *profileRepo) ListMentorIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM profiles WHERE is_mentor ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
