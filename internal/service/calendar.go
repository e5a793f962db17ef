package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

var (
	ErrCalendarNotConfigured = errors.New("google calendar not configured")
	ErrOAuthProviderError    = errors.New("OAuth provider returned an error")
)

const calendarScope = "https://www.googleapis.com/auth/calendar.events"

// CalendarLinker produces the calendar link stored on an accepted session.
// The link is either the created event or, when the mentor has not yet
// granted calendar access, the authorization URL that finishes the job.
type CalendarLinker interface {
	Link(ctx context.Context, session *model.Session) (string, error)
}

// GoogleEndpoints are overridable for tests.
type GoogleEndpoints struct {
	AuthURL   string
	TokenURL  string
	EventsURL string
}

var DefaultGoogleEndpoints = GoogleEndpoints{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	EventsURL: "https://www.googleapis.com/calendar/v3/calendars/primary/events",
}

type GoogleCalendar struct {
	cfg       *config.Config
	endpoints GoogleEndpoints
	client    *http.Client

	states   repository.OAuthStateRepository
	creds    repository.CalendarCredentialRepository
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	users    repository.UserRepository

	// nil disables refresh token storage
	box *util.SecretBox
}

func NewGoogleCalendar(
	cfg *config.Config,
	endpoints GoogleEndpoints,
	states repository.OAuthStateRepository,
	creds repository.CalendarCredentialRepository,
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	box *util.SecretBox,
) *GoogleCalendar {
	return &GoogleCalendar{
		cfg:       cfg,
		endpoints: endpoints,
		client:    &http.Client{Timeout: config.ExternalHTTPTimeout},
		states:    states,
		creds:     creds,
		sessions:  sessions,
		profiles:  profiles,
		users:     users,
		box:       box,
	}
}

func (g *GoogleCalendar) Link(ctx context.Context, session *model.Session) (string, error) {
	if !g.cfg.GoogleConfigured() {
		return "", ErrCalendarNotConfigured
	}

	if link, ok := g.linkWithStoredCredential(ctx, session); ok {
		return link, nil
	}

	return g.authURL(ctx, session.ID)
}

// linkWithStoredCredential creates the event directly when the mentor has a
// stored refresh token. Any failure falls back to a fresh authorization.
func (g *GoogleCalendar) linkWithStoredCredential(ctx context.Context, session *model.Session) (string, bool) {
	if g.box == nil {
		return "", false
	}

	cred, err := g.creds.FindByProfileID(ctx, session.ToProfileID)
	if err != nil {
		log.Warn().Err(err).Str("profileId", session.ToProfileID).Msg("failed to load calendar credential")
		return "", false
	}
	if cred == nil {
		return "", false
	}

	refreshToken, err := g.box.Open(cred.RefreshTokenEncrypted)
	if err != nil {
		log.Warn().Err(err).Str("profileId", session.ToProfileID).Msg("stored calendar credential unreadable")
		return "", false
	}

	tokens, err := g.requestToken(ctx, url.Values{
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		// Most likely revoked. Forget it so the mentor is asked again.
		log.Warn().Err(err).Str("profileId", session.ToProfileID).Msg("calendar token refresh failed")
		if delErr := g.creds.Delete(ctx, session.ToProfileID); delErr != nil {
			log.Warn().Err(delErr).Msg("failed to delete calendar credential")
		}
		return "", false
	}

	link, err := g.createEvent(ctx, tokens.AccessToken, session)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("calendar event creation failed")
		return "", false
	}
	return link, true
}

func (g *GoogleCalendar) authURL(ctx context.Context, sessionID string) (string, error) {
	state, err := util.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	_, err = g.states.Create(ctx, model.CreateOAuthStateParams{
		ID:        util.NewID(),
		State:     state,
		Purpose:   model.OAuthPurposeCalendar,
		SessionID: &sessionID,
		ExpiresAt: time.Now().Add(config.OAuthStateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	params := url.Values{
		"client_id":     {g.cfg.GoogleClientID},
		"redirect_uri":  {g.cfg.GoogleRedirectURL},
		"response_type": {"code"},
		"scope":         {calendarScope},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}

	return g.endpoints.AuthURL + "?" + params.Encode(), nil
}

// HandleCallback finishes an authorization started by Link: it creates the
// event, stores its link on the session and returns it for the redirect.
func (g *GoogleCalendar) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", apperrors.ValidationError("Missing code or state in redirect")
	}

	stored, err := g.states.Consume(ctx, state)
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	if stored == nil || stored.Purpose != model.OAuthPurposeCalendar || stored.SessionID == nil {
		return "", apperrors.InvalidToken("Invalid or expired calendar authorization")
	}

	session, err := g.sessions.FindByID(ctx, *stored.SessionID)
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return "", apperrors.NotFound("Session")
	}
	if session.Status != model.SessionStatusAccepted {
		return "", apperrors.Conflict("Session is no longer accepted")
	}

	tokens, err := g.requestToken(ctx, url.Values{
		"code":         {code},
		"redirect_uri": {g.cfg.GoogleRedirectURL},
		"grant_type":   {"authorization_code"},
	})
	if err != nil {
		return "", apperrors.External("Google OAuth", err)
	}

	if tokens.RefreshToken != "" && g.box != nil {
		g.storeRefreshToken(ctx, session.ToProfileID, tokens.RefreshToken)
	}

	link, err := g.createEvent(ctx, tokens.AccessToken, session)
	if err != nil {
		return "", apperrors.External("Google Calendar", err)
	}

	if err := g.sessions.SetCalendarEventURL(ctx, session.ID, link); err != nil {
		return "", fmt.Errorf("store calendar link: %w", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("profileId", session.ToProfileID).
		Msg("calendar event created")

	return link, nil
}

func (g *GoogleCalendar) storeRefreshToken(ctx context.Context, profileID, refreshToken string) {
	sealed, err := g.box.Seal(refreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encrypt calendar refresh token")
		return
	}
	if err := g.creds.Upsert(ctx, profileID, sealed); err != nil {
		log.Warn().Err(err).Str("profileId", profileID).Msg("failed to store calendar credential")
	}
}

type googleTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (g *GoogleCalendar) requestToken(ctx context.Context, data url.Values) (*googleTokens, error) {
	data.Set("client_id", g.cfg.GoogleClientID)
	data.Set("client_secret", g.cfg.GoogleClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var tokens googleTokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, ErrOAuthProviderError
	}
	return &tokens, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type eventAttendee struct {
	Email string `json:"email"`
}

type eventReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type eventRequest struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Start       eventTime       `json:"start"`
	End         eventTime       `json:"end"`
	Attendees   []eventAttendee `json:"attendees,omitempty"`
	Reminders   struct {
		UseDefault bool            `json:"useDefault"`
		Overrides  []eventReminder `json:"overrides"`
	} `json:"reminders"`
}

func (g *GoogleCalendar) createEvent(ctx context.Context, accessToken string, session *model.Session) (string, error) {
	event := model.CalendarEvent{
		Summary:     session.Topic,
		Description: session.Problem,
		Start:       session.StartDateTime,
		End:         session.EndDateTime,
		Attendees:   g.participantEmails(ctx, session),
	}

	payload := eventRequest{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTime{DateTime: event.Start.UTC().Format(time.RFC3339)},
		End:         eventTime{DateTime: event.End.UTC().Format(time.RFC3339)},
	}
	for _, email := range event.Attendees {
		payload.Attendees = append(payload.Attendees, eventAttendee{Email: email})
	}
	payload.Reminders.Overrides = []eventReminder{
		{Method: "email", Minutes: 24 * 60},
		{Method: "popup", Minutes: 10},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoints.EventsURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := g.do(req)
	if err != nil {
		return "", err
	}

	var created struct {
		HTMLLink string `json:"htmlLink"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode event response: %w", err)
	}
	if created.HTMLLink == "" {
		return "", ErrOAuthProviderError
	}
	return created.HTMLLink, nil
}

// participantEmails skips anyone it cannot resolve; the event is still
// useful without them.
func (g *GoogleCalendar) participantEmails(ctx context.Context, session *model.Session) []string {
	var emails []string
	for _, profileID := range []string{session.FromProfileID, session.ToProfileID} {
		profile, err := g.profiles.FindByID(ctx, profileID)
		if err != nil || profile == nil {
			continue
		}
		user, err := g.users.FindByID(ctx, profile.UserID)
		if err != nil || user == nil {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails
}

func (g *GoogleCalendar) do(req *http.Request) ([]byte, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("url", req.URL.Host+req.URL.Path).
			Msg("google request failed")
		return nil, ErrOAuthProviderError
	}
	return body, nil
}
