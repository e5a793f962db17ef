package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentormatch/mentor-match-go/internal/middleware"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

// ResourceAPI is implemented by *service.ResourceService.
type ResourceAPI[T any, PT model.ResourcePtr[T]] interface {
	List(ctx context.Context, profileID string, page, limit int) (model.Page[T], error)
	Get(ctx context.Context, id, profileID string) (PT, error)
	Create(ctx context.Context, profileID string, item PT) (PT, error)
	Update(ctx context.Context, id, profileID string, item PT) (PT, error)
	Delete(ctx context.Context, id, profileID string) error
}

// ResourceHandler is the CRUD surface shared by educations, experiences and
// certifications. Everything is scoped to the caller's own profile.
type ResourceHandler[T any, PT model.ResourcePtr[T]] struct {
	svc ResourceAPI[T, PT]
}

func NewResourceHandler[T any, PT model.ResourcePtr[T]](svc ResourceAPI[T, PT]) *ResourceHandler[T, PT] {
	return &ResourceHandler[T, PT]{svc: svc}
}

func (h *ResourceHandler[T, PT]) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

func (h *ResourceHandler[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	p := ParsePagination(r)

	page, err := h.svc.List(r.Context(), profile.ID, p.Page, p.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ResourceHandler[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), profile.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	item := PT(new(T))
	if err := decodeJSON(r, item); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.svc.Create(r.Context(), profile.ID, item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ResourceHandler[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	item := PT(new(T))
	if err := decodeJSON(r, item); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), profile.ID, item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), profile.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
