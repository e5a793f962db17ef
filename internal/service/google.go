package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
	"github.com/mentormatch/mentor-match-go/internal/model"
)

var (
	ErrInvalidIDToken        = errors.New("invalid Google ID token")
	ErrProviderNotConfigured = errors.New("OAuth provider not configured")
)

const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// IDTokenVerifier checks a Google Sign-In ID token and returns who it
// identifies.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*model.GoogleIdentity, error)
}

// GoogleTokenInfo verifies ID tokens through Google's tokeninfo endpoint,
// which checks the signature and expiry for us.
type GoogleTokenInfo struct {
	endpoint string
	clientID string
	client   *http.Client
}

func NewGoogleTokenInfo(endpoint, clientID string) *GoogleTokenInfo {
	return &GoogleTokenInfo{
		endpoint: endpoint,
		clientID: clientID,
		client:   &http.Client{Timeout: config.ExternalHTTPTimeout},
	}
}

func (g *GoogleTokenInfo) Verify(ctx context.Context, idToken string) (*model.GoogleIdentity, error) {
	if g.clientID == "" {
		return nil, ErrProviderNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+"?"+url.Values{"id_token": {idToken}}.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create tokeninfo request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tokeninfo response: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidIDToken
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Google tokeninfo failed")
		return nil, ErrOAuthProviderError
	}

	// tokeninfo encodes booleans as strings
	var info struct {
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo: %w", err)
	}

	if info.Aud != g.clientID || info.Sub == "" || info.Email == "" {
		return nil, ErrInvalidIDToken
	}

	return &model.GoogleIdentity{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
