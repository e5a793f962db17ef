package handler

import (
	"net/http"
	"strconv"

	"github.com/mentormatch/mentor-match-go/internal/config"
)

type PaginationParams struct {
	Page  int
	Limit int
}

// ParsePagination reads page/limit. Missing or non-positive values fall back
// to the defaults; limit is capped at config.MaxLimit.
func ParsePagination(r *http.Request) PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if page <= 0 {
		page = config.DefaultPage
	}

	if limit <= 0 {
		limit = config.DefaultLimit
	}
	if limit > config.MaxLimit {
		limit = config.MaxLimit
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}
