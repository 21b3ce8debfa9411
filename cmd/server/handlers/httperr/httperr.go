package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// E represents an HTTP error with status code, message and a machine-readable kind
type E struct {
	Status  int               `json:"-" example:"400"`
	Message string            `json:"error" example:"Bad Request"`
	Kind    string            `json:"kind,omitempty" example:"invalid_input"`
	Data    map[string]string `json:"data,omitempty"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// New builds an error of the given kind.
func New(status int, kind, message string) E {
	return E{Status: status, Kind: kind, Message: message}
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  400,
		Kind:    KindInvalidInput,
		Message: "Invalid input: " + err.Error(),
	})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: 500, Kind: KindInternal, Message: message}
}

// Error kinds
const (
	KindInvalidInput          = "invalid_input"
	KindInvalidDomain         = "invalid_domain"
	KindInvalidRole           = "invalid_role"
	KindOTPNotFound           = "otp_not_found"
	KindOTPMismatch           = "otp_mismatch"
	KindOTPExpired            = "otp_expired"
	KindInvalidOrExpiredToken = "invalid_or_expired_token"
	KindUnauthorized          = "unauthorized"
	KindInvalidCredentials    = "invalid_credentials"
	KindVerificationRequired  = "verification_required"
	KindForbidden             = "forbidden"
	KindNotFound              = "not_found"
	KindAlreadyVerified       = "already_verified"
	KindDuplicateEmail        = "duplicate_email"
	KindAdminExists           = "admin_exists"
	KindLastAdmin             = "last_admin"
	KindTooManyRequests       = "too_many_requests"
	KindMailFailure           = "mail_failure"
	KindInternal              = "internal"
)

// Pre-defined HTTP errors
var (
	ErrBadRequest      = E{Status: 400, Kind: KindInvalidInput, Message: "Bad Request"}
	ErrUnauthorized    = E{Status: 401, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden       = E{Status: 403, Kind: KindForbidden, Message: "Forbidden"}
	ErrNotFound        = E{Status: 404, Kind: KindNotFound, Message: "Not Found"}
	ErrTooManyRequests = E{Status: 429, Kind: KindTooManyRequests, Message: "Too Many Requests"}
	ErrInternal        = InternalError("Internal Server Error")
)

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Message: fiberError.Message,
		})
	}

	return ErrInternal.JSON(c)
}
