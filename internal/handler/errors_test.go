package handler

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret-0123456789abcdef"

func TestUserIDReadsTheAuthenticatedCaller(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.VerifyToken(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(userID(c))
	})

	claims := domain.AccessClaims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user-42", string(body))
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing record", domain.ErrRecordNotFound, fiber.StatusNotFound},
		{"wrapped missing session", fmt.Errorf("load: %w", domain.ErrSessionNotFound), fiber.StatusNotFound},
		{"inactive record", domain.ErrRecordNotActive, fiber.StatusConflict},
		{"completed twice", domain.ErrSessionAlreadyCompleted, fiber.StatusConflict},
		{"duplicate configuration", domain.ErrDuplicateConfiguration, fiber.StatusConflict},
		{"bad attempt", domain.ErrInvalidAttempt, fiber.StatusBadRequest},
		{"bad kind", domain.ErrInvalidRecordKind, fiber.StatusBadRequest},
		{"unexpected", fmt.Errorf("mongo down"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
