// Package workspace mints time-bound single-sign-on credentials for the
// externally hosted notebook workspace and builds the handoff URL that drops
// a learner into their notebook.
package workspace

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Config contains the workspace host settings.
type Config struct {
	BaseURL   string
	JWTSecret string
	TokenTTL  time.Duration
}

// Provisioner issues workspace credentials and access URLs.
type Provisioner struct {
	baseURL  string
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// New constructs a workspace provisioner.
func New(cfg Config, logger zerolog.Logger) (*Provisioner, error) {
	if cfg.BaseURL == "" || cfg.JWTSecret == "" {
		return nil, fmt.Errorf("workspace base url and jwt secret must be provided")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Provisioner{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: ttl,
		logger:   logger.With().Str("component", "workspace").Logger(),
		now:      time.Now,
	}, nil
}

// Username derives the deterministic workspace identity for a user. The
// grading pipeline reports results against this string, so it is also
// persisted on the user row as the authoritative correlation column.
func Username(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// MintToken issues a short-lived HS256 token scoped to one workspace user.
func (p *Provisioner) MintToken(userID uint, username string) (string, error) {
	now := p.now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"name": username,
		"iat":  now.Unix(),
		"exp":  now.Add(p.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign workspace token: %w", err)
	}

	return token, nil
}

// AccessURL builds the login->spawn->notebook handoff URL. The spawn hop
// guarantees the user's server is running before the notebook redirect.
func (p *Provisioner) AccessURL(username, token, notebookFilename string) string {
	nextPath := fmt.Sprintf("/user/%s/notebooks/%s", username, notebookFilename)

	return fmt.Sprintf("%s/hub/login?token=%s&next=/hub/spawn/%s?next=%s",
		p.baseURL, url.QueryEscape(token), url.PathEscape(username), url.QueryEscape(nextPath))
}
