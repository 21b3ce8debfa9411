package middlewares

import (
	"slices"

	"placement-portal/cmd/server/ctxkeys"
	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/internal/logger"
	"placement-portal/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT returns a Fiber middleware that validates the Bearer token with the
// signer's key and algorithm, then applies signer.Verify so exp and the
// user_id, email and role claims are required exactly as on every other
// path. Claims land in Locals under the ctxkeys names. Any failure is a 401.
func JWT(signer *auth.TokenSigner) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc: signer.Keyfunc,
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("user").(*jwt.Token)

			claims, err := signer.Verify(token.Raw)
			if err != nil {
				logger.L().Warn("rejected token", "path", c.Path(), "error", err)
				return httperr.Fail(httperr.ErrUnauthorized)
			}

			c.Locals(ctxkeys.UserIDKey, claims.UserID)
			c.Locals(ctxkeys.UserEmailKey, claims.Email)
			c.Locals(ctxkeys.UserRoleKey, string(claims.Role))
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.L().Debug("jwt validation failed", "path", c.Path(), "error", err)
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}

// RequireRole lets the request through only when the JWT role is one of roles.
// It must run after JWT.
func RequireRole(roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(ctxkeys.UserRoleKey).(string)
		if !slices.Contains(roles, auth.Role(role)) {
			logger.L().Warn("role not permitted", "path", c.Path(), "role", role)
			return httperr.Fail(httperr.ErrForbidden)
		}
		return c.Next()
	}
}
