package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/middleware"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/service"
)

// SessionAPI is implemented by *service.SessionService.
type SessionAPI interface {
	Create(ctx context.Context, fromProfileID string, in service.CreateSessionInput) (*model.Session, error)
	Detail(ctx context.Context, id, viewerProfileID string) (*model.SessionDetail, error)
	List(ctx context.Context, profileID string, status model.SessionStatus, page, limit int) (model.Page[model.SessionView], error)
	UpdateStatus(ctx context.Context, id string, next model.SessionStatus, actorProfileID string) (*model.Session, error)
}

// ReviewAPI is implemented by *service.ReviewService.
type ReviewAPI interface {
	Create(ctx context.Context, sessionID string, in service.CreateReviewInput, actorProfileID string) (*model.Review, error)
	Get(ctx context.Context, id string) (*model.ReviewDetail, error)
}

// SessionHandler serves sessions and their reviews. Every route expects an
// authenticated caller.
type SessionHandler struct {
	sessions SessionAPI
	reviews  ReviewAPI
}

func NewSessionHandler(sessions SessionAPI, reviews ReviewAPI) *SessionHandler {
	return &SessionHandler{sessions: sessions, reviews: reviews}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireMentee).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.UpdateStatus)
	r.Post("/{id}/review", h.CreateReview)

	return r
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	var req service.CreateSessionInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.sessions.Create(r.Context(), profile.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	status := model.SessionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.SessionStatusPending
	}
	p := ParsePagination(r)

	page, err := h.sessions.List(r.Context(), profile.ID, status, p.Page, p.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":   page.Items,
		"totalPages": page.TotalPages,
		"count":      page.Count,
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	session, err := h.sessions.Detail(r.Context(), chi.URLParam(r, "id"), profile.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	var req struct {
		Status model.SessionStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status == "" {
		writeError(w, r, apperrors.MissingRequired("status"))
		return
	}

	session, err := h.sessions.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, profile.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	var req service.CreateReviewInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.reviews.Create(r.Context(), chi.URLParam(r, "id"), req, profile.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *SessionHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
