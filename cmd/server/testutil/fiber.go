package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/cmd/server/middlewares"
	"placement-portal/internal/config"
	"placement-portal/internal/logger"
	"placement-portal/internal/services/auth"
	util "placement-portal/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// TestJWTSecret signs every token minted by the helpers below
const TestJWTSecret = "test-secret-with-32-plus-characters"

// CreateTestApp creates a basic Fiber app for testing with common configuration
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()

	_, err := logger.Init(config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)

	return fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
	})
}

// CreateTestValidator creates a validator with the portal's custom tags registered
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()

	v, err := util.NewValidator()
	require.NoError(t, err)
	return v
}

// CreateTestJWT creates a signed session token for testing purposes
func CreateTestJWT(userID, email, role string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     now.Add(expiry).Unix(),
		"iat":     now.Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// MustJWT is CreateTestJWT signed with TestJWTSecret, valid for an hour
func MustJWT(t *testing.T, userID, email, role string) string {
	t.Helper()

	token, err := CreateTestJWT(userID, email, role, []byte(TestJWTSecret), time.Hour)
	require.NoError(t, err)
	return token
}

// SetupJWTMiddleware returns the production JWT middleware keyed with jwtSecret
func SetupJWTMiddleware(jwtSecret string) fiber.Handler {
	signer, err := auth.NewTokenSigner(jwtSecret, "HS256")
	if err != nil {
		panic(err)
	}
	return middlewares.JWT(signer)
}

// CreateRateLimiter creates a rate limiter for testing
func CreateRateLimiter(maxRequests int, duration time.Duration) fiber.Handler {
	return middlewares.BuildRateLimiter(maxRequests, duration)
}

// CreateJSONRequest creates an HTTP request with JSON body
func CreateJSONRequest(method, url string, body any) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateAuthenticatedRequest creates an HTTP request with Authorization header
func CreateAuthenticatedRequest(method, url string, body any, token string) *http.Request {
	req := CreateJSONRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// CreateWebSocketRequest creates an HTTP request with WebSocket upgrade headers
func CreateWebSocketRequest(url string, token *string) *http.Request {
	requestURL := url
	if token != nil {
		requestURL += "?token=" + *token
	}

	req := httptest.NewRequest("GET", requestURL, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

// DecodeError reads an httperr.E response body
func DecodeError(t *testing.T, resp *http.Response) httperr.E {
	t.Helper()

	var e httperr.E
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}
