package auth

import (
	"context"
	"net/url"

	"placement-portal/cmd/server/handlers/handlerutil"
	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/internal/logger"
	"placement-portal/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthService defines the interface for auth service
type AuthService interface {
	StartRegistration(ctx context.Context, req auth.StartRegistrationRequest) (*auth.MessageResponse, error)
	ResendOTP(ctx context.Context, req auth.ResendOTPRequest) (*auth.MessageResponse, error)
	VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*auth.MessageResponse, error)
	CompleteRegistration(ctx context.Context, req auth.CompleteRegistrationRequest) (*auth.RegistrationResponse, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req auth.ForgotPasswordRequest) (*auth.MessageResponse, error)
	RedeemPasswordReset(ctx context.Context, req auth.ResetPasswordRequest) (*auth.MessageResponse, error)
	ForceVerify(ctx context.Context, req auth.VerifyAccountRequest) (*auth.MessageResponse, error)
	VerificationStatus(ctx context.Context, email string) (*auth.VerificationStatus, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// SendOTP starts student registration
// @Summary Send a registration code
// @Description Mails a 6-digit code to an institution address that has no verified account yet
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.StartRegistrationRequest true "Student email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /auth/send-otp [post]
func (h *Handlers) SendOTP(c *fiber.Ctx) error {
	var req auth.StartRegistrationRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SendOTP"); err != nil {
		return err
	}

	resp, err := h.authService.StartRegistration(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "SendOTP")
	}
	return c.JSON(resp)
}

// ResendOTP re-issues a registration code
// @Summary Resend a registration code
// @Description Replaces any pending code for the email with a fresh one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.StartRegistrationRequest true "Student email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /auth/resend-otp [post]
func (h *Handlers) ResendOTP(c *fiber.Ctx) error {
	var req auth.ResendOTPRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ResendOTP"); err != nil {
		return err
	}

	resp, err := h.authService.ResendOTP(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "ResendOTP")
	}
	return c.JSON(resp)
}

// VerifyOTP checks a code without consuming it
// @Summary Check a registration code
// @Description Reports whether the code is currently valid. The code stays usable for registration.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.VerifyOTPRequest true "Email and code"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /auth/verify-otp [post]
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req auth.VerifyOTPRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "VerifyOTP"); err != nil {
		return err
	}

	resp, err := h.authService.VerifyOTP(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "VerifyOTP")
	}
	return c.JSON(resp)
}

// RegisterStudent completes student registration
// @Summary Register a student
// @Description Redeems the mailed code and creates a verified student account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.CompleteRegistrationRequest true "Student profile and code"
// @Success 201 {object} auth.RegistrationResponse
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /auth/register-student [post]
func (h *Handlers) RegisterStudent(c *fiber.Ctx) error {
	var req auth.CompleteRegistrationRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "RegisterStudent"); err != nil {
		return err
	}

	resp, err := h.authService.CompleteRegistration(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "RegisterStudent")
	}
	return c.Status(201).JSON(resp)
}

// Login authenticates any role
// @Summary Log in
// @Description Returns a one hour session token for an admin, faculty or verified student
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Login"); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "Login")
	}
	return c.JSON(resp)
}

// ForgotPassword mails a reset link
// @Summary Request a password reset
// @Description Always answers with the same message, whether or not the email is registered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ForgotPasswordRequest true "Account email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /auth/forgot-password [post]
func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req auth.ForgotPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ForgotPassword"); err != nil {
		return err
	}

	resp, err := h.authService.RequestPasswordReset(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "ForgotPassword")
	}
	return c.JSON(resp)
}

// ResetPassword redeems a reset token
// @Summary Reset a password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ResetPasswordRequest true "Token, role and new password"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req auth.ResetPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ResetPassword"); err != nil {
		return err
	}

	resp, err := h.authService.RedeemPasswordReset(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "ResetPassword")
	}
	return c.JSON(resp)
}

// VerifyAccount marks an account verified
// @Summary Force-verify an account
// @Description Operator override. Idempotent.
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body auth.VerifyAccountRequest true "Account email"
// @Success 200 {object} auth.MessageResponse
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /auth/verify-account [post]
func (h *Handlers) VerifyAccount(c *fiber.Ctx) error {
	var req auth.VerifyAccountRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "VerifyAccount"); err != nil {
		return err
	}

	resp, err := h.authService.ForceVerify(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "VerifyAccount")
	}
	return c.JSON(resp)
}

// VerificationStatus reads an account's verification flag
// @Summary Check verification status
// @Tags auth
// @Produce json
// @Security Bearer
// @Param email path string true "Account email"
// @Success 200 {object} auth.VerificationStatus
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /auth/verification/{email} [get]
func (h *Handlers) VerificationStatus(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err == nil {
		err = h.validator.Var(email, "required,email")
	}
	if err != nil {
		logger.L().Warn("invalid email parameter", "handler", "VerificationStatus", "error", err)
		return httperr.InvalidInput(err)
	}

	resp, err := h.authService.VerificationStatus(c.UserContext(), email)
	if err != nil {
		return handlerutil.ServiceError(err, "VerificationStatus")
	}
	return c.JSON(resp)
}
