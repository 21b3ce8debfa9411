package auth

import "errors"

var (
	ErrInvalidDomain         = errors.New("email must belong to the institution domain")
	ErrAlreadyVerified       = errors.New("an account with this email is already registered")
	ErrMailFailure           = errors.New("failed to send email")
	ErrDuplicateEmail        = errors.New("an account with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRole           = errors.New("invalid role")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUserNotFound          = errors.New("user not found")
	ErrGenAccessToken        = errors.New("failed to generate access token")
	ErrUnsupportedJWTAlg     = errors.New("unsupported JWT algorithm")
	ErrInvalidToken          = errors.New("invalid token")
)

// ErrDuplicate is returned by repositories when the unique email index rejects a write
var ErrDuplicate = errors.New("user with this email already exists")

// VerificationRequiredError is returned by Login for an unverified student.
// It carries the email so the client can request a fresh code.
type VerificationRequiredError struct {
	Email string
}

func (e *VerificationRequiredError) Error() string {
	return "account is not verified"
}
