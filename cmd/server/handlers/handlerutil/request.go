package handlerutil

import (
	"placement-portal/cmd/server/ctxkeys"
	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetUserID extracts the authenticated user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "userIDStr", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ParseObjectIDParam reads an ObjectID route parameter. A malformed id is
// reported as not found, like an id that does not exist.
func ParseObjectIDParam(c *fiber.Ctx, name, handlerName string) (bson.ObjectID, error) {
	raw := c.Params(name)
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid id parameter", "handler", handlerName, "param", name, "value", raw, "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrNotFound)
	}
	return id, nil
}
