package service

import (
	"fmt"

	"github.com/mentormatch/mentor-match-go/internal/config"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
)

// pageOffset validates paging input and returns the row offset for it.
// Handlers normalise query strings before they get here; CLI and job callers
// do not.
func pageOffset(page, limit int) (int, error) {
	if page < 1 {
		return 0, apperrors.InvalidInput("page", "must be at least 1")
	}
	if limit < 1 || limit > config.MaxLimit {
		return 0, apperrors.InvalidInput("limit", fmt.Sprintf("must be between 1 and %d", config.MaxLimit))
	}
	return (page - 1) * limit, nil
}
