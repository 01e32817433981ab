// Package grader is the outbound gateway to the external grading pipeline.
// Every call is fire-and-forget from the caller's perspective: the engine
// logs failures and moves on, because grading progress always arrives via
// the inbound webhook (or an admin override) rather than these requests.
package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains the connection settings for the grading service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NotebookRef identifies the notebook file the grading service should act on.
type NotebookRef struct {
	Filename string `json:"notebookFilename"`
	Path     string `json:"notebookPath"`
}

// Client implements the dispatch gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New constructs a grading service client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("grading service base url must be provided")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "grader_client").Logger(),
	}, nil
}

// PrepareWorkspace asks the grading service to copy the learner-facing
// notebook into the user's workspace before they open it.
func (c *Client) PrepareWorkspace(ctx context.Context, username, assignmentName string, notebook NotebookRef) error {
	endpoint := fmt.Sprintf("%s/prepare-notebook/%s/%s",
		c.baseURL, url.PathEscape(username), url.PathEscape(assignmentName))

	return c.post(ctx, endpoint, notebook)
}

// TriggerGrading asks the grading service to collect the user's work for the
// assignment and grade it.
func (c *Client) TriggerGrading(ctx context.Context, username, assignmentName string, notebook NotebookRef) error {
	endpoint := fmt.Sprintf("%s/submit/%s/%s",
		c.baseURL, url.PathEscape(username), url.PathEscape(assignmentName))

	return c.post(ctx, endpoint, notebook)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("grading service unreachable: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("grading service returned status %d", response.StatusCode)
	}

	c.logger.Debug().Str("endpoint", endpoint).Msg("grading service call succeeded")

	return nil
}
