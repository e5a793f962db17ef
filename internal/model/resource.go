package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

// ResourceBase holds the ownership and lifecycle columns shared by the
// education, experience and certification entries of a profile.
type ResourceBase struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profileId"`
	IsDeleted bool      `db:"is_deleted" json:"isDeleted"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (b *ResourceBase) Base() *ResourceBase { return b }

// Resource is implemented by pointers to the profile resource types.
type Resource interface {
	Base() *ResourceBase
	Validate() error
}

// ResourcePtr constrains a type parameter to *T implementing Resource, so
// generic code can allocate a T and still call pointer methods on it.
type ResourcePtr[T any] interface {
	*T
	Resource
}

type Education struct {
	ResourceBase
	Degree      string `db:"degree" json:"degree"`
	EndYear     int    `db:"end_year" json:"endYear"`
	Field       string `db:"field" json:"field"`
	Description string `db:"description" json:"description"`
	URL         string `db:"url" json:"url"`
}

func (e *Education) Validate() error {
	if strings.TrimSpace(e.Degree) == "" {
		return apperrors.MissingRequired("degree")
	}
	if strings.TrimSpace(e.Field) == "" {
		return apperrors.MissingRequired("field")
	}
	if e.EndYear < 1900 || e.EndYear > 2100 {
		return apperrors.InvalidInput("endYear", "must be a four digit year")
	}
	return validateOptionalURL("url", e.URL)
}

type Experience struct {
	ResourceBase
	Company  string   `db:"company" json:"company"`
	Industry string   `db:"industry" json:"industry"`
	Location string   `db:"location" json:"location"`
	URL      string   `db:"url" json:"url"`
	Position Position `db:"position" json:"position"`
}

// Position is stored as a JSONB column.
type Position struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

func (p Position) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Position) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = Position{}
		return nil
	default:
		return fmt.Errorf("scan position: unsupported type %T", src)
	}
}

func (e *Experience) Validate() error {
	required := []struct{ field, value string }{
		{"company", e.Company},
		{"industry", e.Industry},
		{"location", e.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperrors.MissingRequired(r.field)
		}
	}
	if strings.TrimSpace(e.Position.Title) == "" {
		return apperrors.MissingRequired("position.title")
	}
	if e.Position.StartDate.IsZero() {
		return apperrors.MissingRequired("position.startDate")
	}
	if e.Position.EndDate != nil && e.Position.EndDate.Before(e.Position.StartDate) {
		return apperrors.InvalidInput("position.endDate", "must not be before startDate")
	}
	return validateOptionalURL("url", e.URL)
}

type Certification struct {
	ResourceBase
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	URL         string `db:"url" json:"url"`
}

func (c *Certification) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.MissingRequired("name")
	}
	return validateOptionalURL("url", c.URL)
}

func validateOptionalURL(field, value string) error {
	if value != "" && !util.IsValidURL(value) {
		return apperrors.InvalidInput(field, "must be an absolute http(s) URL")
	}
	return nil
}
