package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"placement-portal/internal/clients/mailer"
	"placement-portal/internal/config"
	"placement-portal/internal/services/activity"
	"placement-portal/internal/services/otp"
	"placement-portal/internal/utils/crypto"
	"placement-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Caller-facing acknowledgements.
const (
	MsgOTPSent         = "OTP sent to your email"
	MsgOTPValid        = "OTP verified successfully"
	MsgRegistered      = "Registration successful"
	MsgResetRequested  = "If an account with that email exists, a password reset link has been sent"
	MsgPasswordReset   = "Password has been reset successfully"
	MsgAccountVerified = "Account verified successfully"
)

const dummyPasswordForTimer = "not-a-real-password-0"

// Service handles registration, login, password reset and verification
type Service struct {
	repo   UsersRepo
	otps   *otp.Registry
	mailer Mailer
	events Publisher
	hasher *crypto.Hasher
	signer *TokenSigner
	config config.Config
	log    *slog.Logger
	now    func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

// NewService creates a new auth service. otps must be the process-wide registry.
func NewService(repo UsersRepo, otps *otp.Registry, m Mailer, events Publisher, hasher *crypto.Hasher, signer *TokenSigner, cfg config.Config, log *slog.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{
		repo:   repo,
		otps:   otps,
		mailer: m,
		events: events,
		hasher: hasher,
		signer: signer,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// StartRegistration mails a verification code to a new student address.
func (s *Service) StartRegistration(ctx context.Context, req StartRegistrationRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)
	if !s.inDomain(email) {
		return nil, ErrInvalidDomain
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != RoleStudent || existing.IsVerified {
			return nil, ErrAlreadyVerified
		}
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	if err := s.dispatchOTP(ctx, email); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: MsgOTPSent}, nil
}

// ResendOTP issues a fresh code, invalidating the previous one.
func (s *Service) ResendOTP(ctx context.Context, req ResendOTPRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)
	if !s.inDomain(email) {
		return nil, ErrInvalidDomain
	}

	if err := s.dispatchOTP(ctx, email); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: MsgOTPSent}, nil
}

// VerifyOTP reports whether code is currently valid for email without consuming it.
func (s *Service) VerifyOTP(_ context.Context, req VerifyOTPRequest) (*MessageResponse, error) {
	if err := s.otps.Check(normalizeEmail(req.Email), req.OTP); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: MsgOTPValid}, nil
}

// CompleteRegistration redeems the code and creates a verified student.
func (s *Service) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*RegistrationResponse, error) {
	email := normalizeEmail(req.Email)
	if !s.inDomain(email) {
		return nil, ErrInvalidDomain
	}

	if err := s.otps.Redeem(email, req.OTP); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:            bson.NewObjectID(),
		Role:          RoleStudent,
		Email:         email,
		PasswordHash:  hash,
		Name:          sanitize.Clean(req.Name),
		Phone:         strings.TrimSpace(req.Phone),
		IsVerified:    true,
		Course:        req.Course,
		Branch:        sanitize.Clean(req.Branch),
		AdmissionYear: req.AdmissionYear,
		PassoutYear:   req.PassoutYear,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.Create(ctx, user)
	if errors.Is(err, ErrDuplicate) {
		err = s.repo.ReplaceUnverifiedStudent(ctx, user)
	}
	if errors.Is(err, ErrDuplicate) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("student registered", "user_id", user.ID.Hex(), "email", email)
	s.events.Publish(activity.NewEvent(activity.TypeStudentRegistered, email, string(RoleStudent)))

	return &RegistrationResponse{Message: MsgRegistered, IsVerified: true, User: user}, nil
}

// Login authenticates any role. Unknown email and wrong password are the
// same error; an unverified student gets a VerificationRequiredError.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		// keep response time close to the wrong-password path
		_ = s.hasher.Check(ctx, req.Password, s.timingHash(ctx))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.Role == RoleStudent && !user.IsVerified {
		return nil, &VerificationRequiredError{Email: user.Email}
	}

	if err := s.hasher.Check(ctx, req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.signer.Sign(Claims{UserID: user.ID.Hex(), Email: user.Email, Role: user.Role})
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		return nil, ErrGenAccessToken
	}

	return &LoginResponse{Token: token, Role: user.Role, Name: user.Name, Email: user.Email}, nil
}

// RequestPasswordReset stores a reset token and mails a link. The reply is
// the same whether or not the email is known.
func (s *Service) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)
	generic := &MessageResponse{Message: MsgResetRequested}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return generic, nil
	}
	if err != nil {
		return nil, err
	}

	token, err := crypto.GenerateResetToken()
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(s.config.ResetTokenTTLMinutes) * time.Minute
	if err := s.repo.SetResetToken(ctx, user.ID, token, s.now().UTC().Add(ttl)); err != nil {
		return nil, err
	}

	body, err := mailer.ResetBody(s.resetLink(token, user.Role), ttl)
	if err == nil {
		err = s.mailer.Send(ctx, email, mailer.SubjectPasswordReset, body)
	}
	if err != nil {
		s.log.Error("failed to send password reset email", "email", email, "error", err)
		if clearErr := s.repo.ClearResetToken(context.WithoutCancel(ctx), user.ID, token); clearErr != nil {
			s.log.Error("failed to clear reset token", "user_id", user.ID.Hex(), "error", clearErr)
		}
		return nil, ErrMailFailure
	}

	return generic, nil
}

// RedeemPasswordReset replaces the password of the role's account holding token.
func (s *Service) RedeemPasswordReset(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	role := Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	now := s.now().UTC()

	// bogus tokens must not cost a bcrypt round
	holder, err := s.repo.FindByResetToken(ctx, role, req.Token)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}
	if holder.ResetTokenExpiry == nil || !holder.ResetTokenExpiry.After(now) {
		if err := s.repo.ClearResetToken(ctx, holder.ID, req.Token); err != nil {
			s.log.Warn("failed to clear expired reset token", "user_id", holder.ID.Hex(), "error", err)
		}
		return nil, ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.RedeemResetToken(ctx, role, req.Token, hash, now)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(activity.NewEvent(activity.TypePasswordReset, user.Email, string(user.Role)))
	return &MessageResponse{Message: MsgPasswordReset}, nil
}

// ForceVerify marks the account verified. Applying it twice is harmless.
func (s *Service) ForceVerify(ctx context.Context, req VerifyAccountRequest) (*MessageResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.SetVerified(ctx, email)
	if err != nil {
		return nil, err
	}

	s.log.Info("account verified by operator", "email", email, "role", user.Role)
	s.events.Publish(activity.NewEvent(activity.TypeAccountVerified, email, string(user.Role)))
	return &MessageResponse{Message: MsgAccountVerified}, nil
}

// VerificationStatus reads the verification flag without changing it.
func (s *Service) VerificationStatus(ctx context.Context, email string) (*VerificationStatus, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &VerificationStatus{Email: user.Email, Role: user.Role, IsVerified: user.IsVerified}, nil
}

func (s *Service) dispatchOTP(ctx context.Context, email string) error {
	code, err := s.otps.Issue(email)
	if err != nil {
		return err
	}

	ttl := time.Duration(s.config.OTPTTLMinutes) * time.Minute
	body, err := mailer.OTPBody(code, ttl)
	if err == nil {
		err = s.mailer.Send(ctx, email, mailer.SubjectVerification, body)
	}
	if err != nil {
		s.otps.Revoke(email, code)
		s.log.Error("failed to send verification email", "email", email, "error", err)
		return ErrMailFailure
	}

	s.events.Publish(activity.NewEvent(activity.TypeOTPIssued, email, string(RoleStudent)))
	return nil
}

func (s *Service) resetLink(token string, role Role) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("type", string(role))
	return s.config.FrontendURL + "/reset-password?" + q.Encode()
}

func (s *Service) inDomain(email string) bool {
	return strings.HasSuffix(email, "@"+s.config.InstitutionDomain)
}

// timingHash lazily builds a throwaway hash at the configured cost. A failed
// build is retried by the next caller; the caller's cancellation does not apply.
func (s *Service) timingHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPasswordForTimer)
		if err != nil {
			s.log.Warn("failed to build timing hash", "error", err)
			return ""
		}
		s.dummyHash = h
	}
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type nopPublisher struct{}

func (nopPublisher) Publish(activity.Event) {}
