package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mentormatch/mentor-match-go/internal/database"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// ResourceTable describes where a profile resource type lives. Columns are
// the editable columns; id, profile_id, is_deleted and the timestamps are
// common to every resource table.
type ResourceTable struct {
	Name    string
	Columns []string
}

var (
	EducationTable = ResourceTable{
		Name:    "educations",
		Columns: []string{"degree", "end_year", "field", "description", "url"},
	}
	ExperienceTable = ResourceTable{
		Name:    "experiences",
		Columns: []string{"company", "industry", "location", "url", "position"},
	}
	CertificationTable = ResourceTable{
		Name:    "certifications",
		Columns: []string{"name", "description", "url"},
	}
)

// ResourceRepository is the soft-delete CRUD store shared by all profile
// resources. Deleted rows are invisible to every read.
type ResourceRepository[T any, PT model.ResourcePtr[T]] interface {
	FindByID(ctx context.Context, id string) (PT, error)
	// ListByProfile returns the profile's live rows, newest first. A limit
	// of 0 returns all of them.
	ListByProfile(ctx context.Context, profileID string, limit, offset int) ([]T, error)
	CountByProfile(ctx context.Context, profileID string) (int, error)
	Create(ctx context.Context, item PT) (PT, error)
	// Update returns nil when the row is missing, deleted, or owned by
	// another profile.
	Update(ctx context.Context, item PT) (PT, error)
	SoftDelete(ctx context.Context, id, profileID string) (bool, error)
	WithTx(tx *sqlx.Tx) ResourceRepository[T, PT]
}

type resourceRepo[T any, PT model.ResourcePtr[T]] struct {
	db    database.DBTX
	table ResourceTable

	insertQuery string
	updateQuery string
}

func NewResourceRepository[T any, PT model.ResourcePtr[T]](db *sqlx.DB, table ResourceTable) ResourceRepository[T, PT] {
	return newResourceRepo[T, PT](db, table)
}

func NewEducationRepository(db *sqlx.DB) ResourceRepository[model.Education, *model.Education] {
	return NewResourceRepository[model.Education](db, EducationTable)
}

func NewExperienceRepository(db *sqlx.DB) ResourceRepository[model.Experience, *model.Experience] {
	return NewResourceRepository[model.Experience](db, ExperienceTable)
}

func NewCertificationRepository(db *sqlx.DB) ResourceRepository[model.Certification, *model.Certification] {
	return NewResourceRepository[model.Certification](db, CertificationTable)
}

func newResourceRepo[T any, PT model.ResourcePtr[T]](db database.DBTX, table ResourceTable) *resourceRepo[T, PT] {
	cols := append([]string{"id", "profile_id"}, table.Columns...)
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}

	sets := make([]string, 0, len(table.Columns)+1)
	for _, c := range table.Columns {
		sets = append(sets, c+" = :"+c)
	}
	sets = append(sets, "updated_at = NOW()")

	return &resourceRepo[T, PT]{
		db:    db,
		table: table,
		insertQuery: `INSERT INTO ` + table.Name + ` (` + strings.Join(cols, ", ") + `)
			VALUES (` + strings.Join(named, ", ") + `)
			RETURNING *`,
		updateQuery: `UPDATE ` + table.Name + ` SET ` + strings.Join(sets, ", ") + `
			WHERE id = :id AND profile_id = :profile_id AND is_deleted = FALSE
			RETURNING *`,
	}
}

func (r *resourceRepo[T, PT]) WithTx(tx *sqlx.Tx) ResourceRepository[T, PT] {
	return newResourceRepo[T, PT](tx, r.table)
}

func (r *resourceRepo[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	var item T
	err := r.db.GetContext(ctx, &item, `
		SELECT * FROM `+r.table.Name+` WHERE id = $1 AND is_deleted = FALSE
	`, id)
	found, err := HandleNotFound(&item, err)
	if found == nil {
		return nil, err
	}
	return PT(found), nil
}

func (r *resourceRepo[T, PT]) ListByProfile(ctx context.Context, profileID string, limit, offset int) ([]T, error) {
	var items []T
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM `+r.table.Name+`
		WHERE profile_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC, id
		LIMIT NULLIF($2, 0) OFFSET $3
	`, profileID, limit, offset)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *resourceRepo[T, PT]) CountByProfile(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM `+r.table.Name+` WHERE profile_id = $1 AND is_deleted = FALSE
	`, profileID)
	return count, err
}

func (r *resourceRepo[T, PT]) Create(ctx context.Context, item PT) (PT, error) {
	query, args, err := r.db.BindNamed(r.insertQuery, item)
	if err != nil {
		return nil, err
	}

	var created T
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		return nil, err
	}
	return PT(&created), nil
}

func (r *resourceRepo[T, PT]) Update(ctx context.Context, item PT) (PT, error) {
	query, args, err := r.db.BindNamed(r.updateQuery, item)
	if err != nil {
		return nil, err
	}

	var updated T
	err = r.db.GetContext(ctx, &updated, query, args...)
	found, err := HandleNotFound(&updated, err)
	if found == nil {
		return nil, err
	}
	return PT(found), nil
}

func (r *resourceRepo[T, PT]) SoftDelete(ctx context.Context, id, profileID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE `+r.table.Name+` SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND profile_id = $2 AND is_deleted = FALSE
	`, id, profileID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
