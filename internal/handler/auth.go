package handler

import (
	"context"
	"net/http"

	"github.com/mentormatch/mentor-match-go/internal/audit"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/middleware"
	"github.com/mentormatch/mentor-match-go/internal/service"
)

// AuthAPI is implemented by *service.AuthService.
type AuthAPI interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*service.AuthResult, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthHandler struct {
	auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSignup,
		UserID:    result.Profile.UserID,
		ProfileID: result.Profile.ID,
		Details:   map[string]interface{}{"isMentor": result.Profile.IsMentor},
	})
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		}
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		UserID:    result.Profile.UserID,
		ProfileID: result.Profile.ID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IDToken == "" {
		writeError(w, r, apperrors.MissingRequired("idToken"))
		return
	}

	result, err := h.auth.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventGoogleLogin,
		UserID:    result.Profile.UserID,
		ProfileID: result.Profile.ID,
	})
	writeJSON(w, http.StatusOK, result)
}

// Logout must be mounted behind AuthMiddleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	if profile := middleware.GetProfile(r.Context()); profile != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventLogout,
			UserID:    profile.UserID,
			ProfileID: profile.ID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" {
		writeError(w, r, apperrors.MissingRequired("email"))
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPasswordForgot})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Please check your email to reset your password",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken  string `json:"resetToken"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ResetToken == "" {
		writeError(w, r, apperrors.MissingRequired("resetToken"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPasswordReset})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
