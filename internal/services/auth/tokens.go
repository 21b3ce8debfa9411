package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of a session token. Tokens are not refreshable.
const TokenTTL = time.Hour

// TokenSigner issues and verifies HMAC-signed session tokens.
type TokenSigner struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenSigner validates the algorithm and returns a signer.
func NewTokenSigner(secret, algorithm string) (*TokenSigner, error) {
	var method jwt.SigningMethod
	switch strings.ToUpper(algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedJWTAlg, algorithm)
	}
	return &TokenSigner{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Sign returns a token for claims valid for TokenTTL.
func (s *TokenSigner) Sign(c Claims) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(s.method, jwt.MapClaims{
		"user_id": c.UserID,
		"email":   c.Email,
		"role":    string(c.Role),
		"exp":     now.Add(TokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenAccessToken, err)
	}
	return signed, nil
}

// Verify checks signature and expiry and extracts the claims.
func (s *TokenSigner) Verify(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, s.Keyfunc,
		jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return ClaimsFromMap(mc)
}

// Keyfunc returns the verification key for tokens signed with the
// configured algorithm and rejects every other method.
func (s *TokenSigner) Keyfunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != s.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.secret, nil
}

// ClaimsFromMap extracts user_id, email and role from parsed JWT claims.
func ClaimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	userID, _ := mc["user_id"].(string)
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)

	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	case email == "":
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	case !Role(role).Valid():
		return nil, fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	return &Claims{UserID: userID, Email: email, Role: Role(role)}, nil
}
