package handlers

import (
	"placement-portal/cmd/server/ctxkeys"

	"github.com/gofiber/fiber/v2"
)

// Me returns the identity carried by the caller's session token.
// @Summary Get current user
// @Description Returns the user id, email and role from the session token
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]string
// @Failure 401 {object} httperr.E
// @Router /me [get]
func Me(c *fiber.Ctx) error {
	userID, _ := c.Locals(ctxkeys.UserIDKey).(string)
	email, _ := c.Locals(ctxkeys.UserEmailKey).(string)
	role, _ := c.Locals(ctxkeys.UserRoleKey).(string)
	return c.JSON(fiber.Map{
		"uid":   userID,
		"email": email,
		"role":  role,
	})
}
