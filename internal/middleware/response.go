package middleware

import (
	"net/http"

	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/httputil"
)

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	httputil.WriteError(w, err)
}
