package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/middleware"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// ProfileAPI is implemented by *service.ProfileService.
type ProfileAPI interface {
	ListMentors(ctx context.Context, filter model.MentorFilter, page, limit int) (model.Page[model.Profile], error)
	Featured(ctx context.Context, page, limit int) (model.Page[model.Profile], error)
	GetDetail(ctx context.Context, id string) (*model.ProfileDetail, error)
	UpdateMe(ctx context.Context, profileID string, params model.UpdateProfileParams) (*model.Profile, error)
}

// AggregateAPI is implemented by *service.MetricsService.
type AggregateAPI interface {
	Aggregate(ctx context.Context, profileID string) (model.MentorAggregate, error)
}

// MentorReviewsAPI is implemented by *service.ReviewService.
type MentorReviewsAPI interface {
	ListForMentor(ctx context.Context, mentorID string, page, limit int) (model.Page[model.MentorReview], error)
}

type ProfileHandler struct {
	profiles ProfileAPI
	metrics  AggregateAPI
	reviews  MentorReviewsAPI
}

func NewProfileHandler(profiles ProfileAPI, metrics AggregateAPI, reviews MentorReviewsAPI) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		metrics:  metrics,
		reviews:  reviews,
	}
}

func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMentors)
	r.Get("/featured", h.Featured)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/aggregate", h.Aggregate)
	r.Get("/{id}/reviews", h.Reviews)

	return r
}

func (h *ProfileHandler) ListMentors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortBy, ok := model.ParseMentorSort(q.Get("sortBy"))
	if !ok {
		writeError(w, r, apperrors.InvalidInput("sortBy", "must be one of reviewDesc, sessionDesc, newest"))
		return
	}

	filter := model.MentorFilter{
		SearchQuery: q.Get("searchQuery"),
		Company:     q.Get("company"),
		Position:    q.Get("position"),
		City:        q.Get("city"),
		SortBy:      sortBy,
	}
	p := ParsePagination(r)

	page, err := h.profiles.ListMentors(r.Context(), filter, p.Page, p.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileListResponse(page))
}

func (h *ProfileHandler) Featured(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	page, err := h.profiles.Featured(r.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileListResponse(page))
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.profiles.GetDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ProfileHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	agg, err := h.metrics.Aggregate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *ProfileHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	page, err := h.reviews.ListForMentor(r.Context(), chi.URLParam(r, "id"), p.Page, p.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reviews":    page.Items,
		"totalPages": page.TotalPages,
		"count":      page.Count,
	})
}

// Me and UpdateMe are mounted behind AuthMiddleware.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	detail, err := h.profiles.GetDetail(r.Context(), profile.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	var params model.UpdateProfileParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.profiles.UpdateMe(r.Context(), profile.ID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func profileListResponse(page model.Page[model.Profile]) map[string]any {
	return map[string]any{
		"profiles":   page.Items,
		"totalPages": page.TotalPages,
		"count":      page.Count,
	}
}
