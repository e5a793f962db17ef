package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError logs anything that is not a user-facing AppError before it is
// flattened into a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := apperrors.AsAppError(err); !ok {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.ValidationError("Request body too large")
		case errors.Is(err, io.EOF):
			return apperrors.ValidationError("Request body is required")
		default:
			return apperrors.ValidationError("Invalid request body").WithCause(err)
		}
	}
	return nil
}
