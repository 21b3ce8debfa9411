package handlerutil

import (
	"errors"

	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/internal/logger"
	"placement-portal/internal/services/admin"
	"placement-portal/internal/services/auth"
	"placement-portal/internal/services/otp"
)

type errorKind struct {
	err    error
	status int
	kind   string
}

var knownErrors = []errorKind{
	{auth.ErrInvalidDomain, 400, httperr.KindInvalidDomain},
	{auth.ErrInvalidRole, 400, httperr.KindInvalidRole},
	{otp.ErrNotFound, 400, httperr.KindOTPNotFound},
	{otp.ErrMismatch, 400, httperr.KindOTPMismatch},
	{otp.ErrExpired, 400, httperr.KindOTPExpired},
	{auth.ErrInvalidOrExpiredToken, 400, httperr.KindInvalidOrExpiredToken},
	{admin.ErrNoChanges, 400, httperr.KindInvalidInput},
	{admin.ErrDeleteSelf, 400, httperr.KindInvalidInput},
	{auth.ErrInvalidCredentials, 401, httperr.KindInvalidCredentials},
	{auth.ErrUserNotFound, 404, httperr.KindNotFound},
	{admin.ErrFacultyNotFound, 404, httperr.KindNotFound},
	{admin.ErrAdminNotFound, 404, httperr.KindNotFound},
	{auth.ErrAlreadyVerified, 409, httperr.KindAlreadyVerified},
	{auth.ErrDuplicateEmail, 409, httperr.KindDuplicateEmail},
	{admin.ErrAdminExists, 409, httperr.KindAdminExists},
	{admin.ErrLastAdmin, 409, httperr.KindLastAdmin},
	{auth.ErrMailFailure, 502, httperr.KindMailFailure},
}

// ServiceError converts a service error into the HTTP error the client sees.
// Anything not caller-safe collapses to a 500.
func ServiceError(err error, handlerName string) error {
	var verr *auth.VerificationRequiredError
	if errors.As(err, &verr) {
		logger.L().Info("login blocked pending verification", "handler", handlerName, "email", verr.Email)
		return httperr.Fail(httperr.E{
			Status:  403,
			Kind:    httperr.KindVerificationRequired,
			Message: verr.Error(),
			Data:    map[string]string{"email": verr.Email},
		})
	}

	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			if k.status >= 500 {
				logger.L().Error("service call failed", "handler", handlerName, "error", err)
			} else {
				logger.L().Info("service call rejected", "handler", handlerName, "kind", k.kind)
			}
			return httperr.Fail(httperr.New(k.status, k.kind, k.err.Error()))
		}
	}

	logger.L().Error("service call failed", "handler", handlerName, "error", err)
	return httperr.Fail(httperr.ErrInternal)
}
