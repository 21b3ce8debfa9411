package admin

import (
	"context"

	"placement-portal/cmd/server/handlers/handlerutil"
	"placement-portal/internal/services/admin"
	"placement-portal/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for the admin service
type Service interface {
	Exists(ctx context.Context) (*admin.ExistsResponse, error)
	Bootstrap(ctx context.Context, req admin.CreateAdminRequest) (*auth.User, error)
	CreateAdmin(ctx context.Context, creatorID bson.ObjectID, req admin.CreateAdminRequest) (*auth.User, error)
	DeleteAdmin(ctx context.Context, callerID, targetID bson.ObjectID) (*auth.User, error)
	Profile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error)
	UpdateProfile(ctx context.Context, adminID bson.ObjectID, req admin.UpdateProfileRequest) (*auth.User, error)
	CreateFaculty(ctx context.Context, adminID bson.ObjectID, req admin.CreateFacultyRequest) (*auth.User, error)
	ListFaculty(ctx context.Context, adminID bson.ObjectID) ([]*auth.User, error)
	UpdateFaculty(ctx context.Context, adminID, facultyID bson.ObjectID, req admin.UpdateFacultyRequest) (*auth.User, error)
	DeleteFaculty(ctx context.Context, adminID, facultyID bson.ObjectID) error
	ListStudents(ctx context.Context) ([]*auth.User, error)
}

// Handlers contains the admin HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new admin handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// UsersResponse wraps a list of accounts
type UsersResponse struct {
	Users []*auth.User `json:"users"`
}

// DeletedAdminResponse identifies a removed admin
type DeletedAdminResponse struct {
	Message string        `json:"message" example:"Admin deleted successfully"`
	ID      bson.ObjectID `json:"id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd1"`
	Name    string        `json:"name" example:"Priya Sen"`
}

// Exists tells a fresh deployment whether the first admin must still be created
// @Summary Does any admin exist
// @Tags admin
// @Produce json
// @Success 200 {object} admin.ExistsResponse
// @Router /admin/exists [get]
func (h *Handlers) Exists(c *fiber.Ctx) error {
	resp, err := h.service.Exists(c.UserContext())
	if err != nil {
		return handlerutil.ServiceError(err, "Exists")
	}
	return c.JSON(resp)
}

// Bootstrap creates the first admin account
// @Summary Create the first admin
// @Description Only succeeds while no admin exists
// @Tags admin
// @Accept json
// @Produce json
// @Param request body admin.CreateAdminRequest true "Admin account"
// @Success 201 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /admin/bootstrap [post]
func (h *Handlers) Bootstrap(c *fiber.Ctx) error {
	var req admin.CreateAdminRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Bootstrap"); err != nil {
		return err
	}

	user, err := h.service.Bootstrap(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "Bootstrap")
	}
	return c.Status(201).JSON(user)
}

// CreateAdmin lets an admin add another admin
// @Summary Create an admin
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body admin.CreateAdminRequest true "Admin account"
// @Success 201 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /admin/admins [post]
func (h *Handlers) CreateAdmin(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req admin.CreateAdminRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateAdmin"); err != nil {
		return err
	}

	user, err := h.service.CreateAdmin(c.UserContext(), callerID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "CreateAdmin")
	}
	return c.Status(201).JSON(user)
}

// DeleteAdmin removes another admin account
// @Summary Delete an admin account
// @Description Faculty owned by the removed admin are reassigned to the caller. The caller's own account and the last remaining admin cannot be deleted.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path string true "Admin ID"
// @Success 200 {object} DeletedAdminResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /admin/admins/{id} [delete]
func (h *Handlers) DeleteAdmin(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	targetID, err := handlerutil.ParseObjectIDParam(c, "id", "DeleteAdmin")
	if err != nil {
		return err
	}

	deleted, err := h.service.DeleteAdmin(c.UserContext(), callerID, targetID)
	if err != nil {
		return handlerutil.ServiceError(err, "DeleteAdmin")
	}
	return c.JSON(DeletedAdminResponse{
		Message: "Admin deleted successfully",
		ID:      deleted.ID,
		Name:    deleted.Name,
	})
}

// Profile returns the caller's admin profile
// @Summary Get own admin profile
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /admin/profile [get]
func (h *Handlers) Profile(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Profile(c.UserContext(), callerID)
	if err != nil {
		return handlerutil.ServiceError(err, "Profile")
	}
	return c.JSON(user)
}

// UpdateProfile changes the caller's name and/or phone
// @Summary Update own admin profile
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body admin.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /admin/profile [put]
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req admin.UpdateProfileRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateProfile"); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.UserContext(), callerID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "UpdateProfile")
	}
	return c.JSON(user)
}

// CreateFaculty creates a faculty account owned by the caller
// @Summary Create a faculty account
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body admin.CreateFacultyRequest true "Faculty account"
// @Success 201 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /admin/faculty [post]
func (h *Handlers) CreateFaculty(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req admin.CreateFacultyRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateFaculty"); err != nil {
		return err
	}

	user, err := h.service.CreateFaculty(c.UserContext(), callerID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "CreateFaculty")
	}
	return c.Status(201).JSON(user)
}

// ListFaculty lists the faculty the caller created, newest first
// @Summary List own faculty
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} UsersResponse
// @Failure 401 {object} httperr.E
// @Router /admin/faculty [get]
func (h *Handlers) ListFaculty(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	users, err := h.service.ListFaculty(c.UserContext(), callerID)
	if err != nil {
		return handlerutil.ServiceError(err, "ListFaculty")
	}
	return c.JSON(UsersResponse{Users: users})
}

// UpdateFaculty edits an owned faculty account
// @Summary Update a faculty account
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Faculty ID"
// @Param request body admin.UpdateFacultyRequest true "Fields to change"
// @Success 200 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /admin/faculty/{id} [patch]
func (h *Handlers) UpdateFaculty(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	facultyID, err := handlerutil.ParseObjectIDParam(c, "id", "UpdateFaculty")
	if err != nil {
		return err
	}

	var req admin.UpdateFacultyRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateFaculty"); err != nil {
		return err
	}

	user, err := h.service.UpdateFaculty(c.UserContext(), callerID, facultyID, req)
	if err != nil {
		return handlerutil.ServiceError(err, "UpdateFaculty")
	}
	return c.JSON(user)
}

// DeleteFaculty removes an owned faculty account
// @Summary Delete a faculty account
// @Tags admin
// @Security Bearer
// @Param id path string true "Faculty ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /admin/faculty/{id} [delete]
func (h *Handlers) DeleteFaculty(c *fiber.Ctx) error {
	callerID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	facultyID, err := handlerutil.ParseObjectIDParam(c, "id", "DeleteFaculty")
	if err != nil {
		return err
	}

	if err := h.service.DeleteFaculty(c.UserContext(), callerID, facultyID); err != nil {
		return handlerutil.ServiceError(err, "DeleteFaculty")
	}
	return c.SendStatus(204)
}

// ListStudents lists verified students
// @Summary List verified students
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} UsersResponse
// @Failure 401 {object} httperr.E
// @Router /admin/students [get]
func (h *Handlers) ListStudents(c *fiber.Ctx) error {
	users, err := h.service.ListStudents(c.UserContext())
	if err != nil {
		return handlerutil.ServiceError(err, "ListStudents")
	}
	return c.JSON(UsersResponse{Users: users})
}
