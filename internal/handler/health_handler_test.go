package handler_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/aiclub-uj/challenge-api/internal/handler"
)

func TestHealthCheckReportsService(t *testing.T) {
	app, _ := setupChallengeApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/health", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Test", resp.Header.Get("X-Application"))

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "Test", body.Data.Service)
}
