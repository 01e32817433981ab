package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func jwtTestApp(secret string) (*fiber.App, *struct {
	userID uint
	role   string
}) {
	captured := &struct {
		userID uint
		role   string
	}{}

	app := fiber.New()
	app.Use(JWTProtected(secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		if id, ok := c.Locals("user_id").(uint); ok {
			captured.userID = id
		}
		if role, ok := c.Locals("user_role").(string); ok {
			captured.role = role
		}
		return c.SendStatus(fiber.StatusOK)
	})

	return app, captured
}

func TestJWTProtectedExtractsIdentity(t *testing.T) {
	app, captured := jwtTestApp("secret")

	token := signTestToken(t, "secret", jwt.MapClaims{
		"sub":  "42",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), captured.userID)
	require.Equal(t, "admin", captured.role)
}

func TestJWTProtectedRejectsMissingAndBadTokens(t *testing.T) {
	app, _ := jwtTestApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	wrongKey := signTestToken(t, "other-secret", jwt.MapClaims{"sub": "42"})
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+wrongKey)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsExpiredTokens(t *testing.T) {
	app, _ := jwtTestApp("secret")

	expired := signTestToken(t, "secret", jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
