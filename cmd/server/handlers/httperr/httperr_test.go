package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "typed error with data",
			err:        E{Status: 403, Kind: KindVerificationRequired, Message: "account is not verified", Data: map[string]string{"email": "a@nsec.ac.in"}},
			wantStatus: 403,
			wantBody: map[string]any{
				"error": "account is not verified",
				"kind":  KindVerificationRequired,
				"data":  map[string]any{"email": "a@nsec.ac.in"},
			},
		},
		{
			name:       "wrapped typed error",
			err:        fmt.Errorf("outer: %w", ErrTooManyRequests),
			wantStatus: 429,
			wantBody:   map[string]any{"error": "Too Many Requests", "kind": KindTooManyRequests},
		},
		{
			name:       "fiber error",
			err:        fiber.ErrMethodNotAllowed,
			wantStatus: 405,
			wantBody:   map[string]any{"error": "Method Not Allowed"},
		},
		{
			name:       "unknown error is hidden",
			err:        errors.New("mongo: connection reset"),
			wantStatus: 500,
			wantBody:   map[string]any{"error": "Internal Server Error", "kind": KindInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: Handler})
			app.Get("/", func(*fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput(errors.New("Key: 'email' failed"))

	var e E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 400, e.Status)
	assert.Equal(t, KindInvalidInput, e.Kind)
	assert.Equal(t, "Invalid input: Key: 'email' failed", e.Message)
}
