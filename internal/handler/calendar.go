package handler

import (
	"context"
	"net/http"

	"github.com/mentormatch/mentor-match-go/internal/audit"
)

// CalendarCallbackAPI is implemented by *service.GoogleCalendar.
type CalendarCallbackAPI interface {
	HandleCallback(ctx context.Context, code, state string) (string, error)
}

type CalendarHandler struct {
	calendar CalendarCallbackAPI
}

func NewCalendarHandler(calendar CalendarCallbackAPI) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Callback is the Google redirect target. On success the mentor lands on the
// created event.
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Calendar authorization was not granted: " + errParam,
		})
		return
	}

	link, err := h.calendar.HandleCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventCalendarAuthDone})
	http.Redirect(w, r, link, http.StatusFound)
}
