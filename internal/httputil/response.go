// Package httputil writes the JSON envelopes shared by handlers and
// middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone; nothing left to tell the client
		log.Debug().Err(err).Msg("failed to encode response body")
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details,omitempty"`
}

// statusByCode lists every code clients can see. Codes missing here are
// server faults.
var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeValidation:      http.StatusBadRequest,
	apperrors.ErrCodeInvalidInput:    http.StatusBadRequest,
	apperrors.ErrCodeMissingRequired: http.StatusBadRequest,

	apperrors.ErrCodeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrCodeInvalidToken: http.StatusUnauthorized,
	apperrors.ErrCodeTokenExpired: http.StatusUnauthorized,

	// a signed-in caller acting outside their role
	apperrors.ErrCodeForbidden:         http.StatusForbidden,
	apperrors.ErrCodeUnauthorizedActor: http.StatusForbidden,

	apperrors.ErrCodeNotFound: http.StatusNotFound,

	apperrors.ErrCodeAlreadyExists:     http.StatusConflict,
	apperrors.ErrCodeConflict:          http.StatusConflict,
	apperrors.ErrCodeInvalidTransition: http.StatusConflict,

	apperrors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,

	apperrors.ErrCodeExternal: http.StatusBadGateway,
}

// StatusFromCode is the HTTP status sent for an AppError code.
func StatusFromCode(code apperrors.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError sends err with the status its code maps to. Anything that is
// not an AppError is reported as a generic internal error so driver and
// network messages never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred")
	}
	WriteErrorWithStatus(w, StatusFromCode(appErr.Code), appErr)
}

// WriteErrorWithStatus is for the few places where the status does not
// follow from the code, such as 413 for an oversized body.
func WriteErrorWithStatus(w http.ResponseWriter, status int, err *apperrors.AppError) {
	WriteJSON(w, status, ErrorResponse{
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}
