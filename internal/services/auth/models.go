package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the fixed privilege tier of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// Priority orders roles for resolution when legacy data holds the same email
// more than once: admin first, then faculty, then student.
func (r Role) Priority() int {
	switch r {
	case RoleAdmin:
		return 0
	case RoleFaculty:
		return 1
	case RoleStudent:
		return 2
	}
	return 3
}

// User is the single document shape stored for every role.
type User struct {
	ID               bson.ObjectID  `bson:"_id,omitempty" json:"id,omitempty" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd1"`
	Role             Role           `bson:"role" json:"role" swaggertype:"string" example:"student"`
	Email            string         `bson:"email" json:"email" example:"student@nsec.ac.in"`
	PasswordHash     string         `bson:"password_hash" json:"-"`
	Name             string         `bson:"name" json:"name" example:"Ada Lovelace"`
	Phone            string         `bson:"phone,omitempty" json:"phone,omitempty" example:"+919876543210"`
	IsVerified       bool           `bson:"is_verified" json:"is_verified" example:"true"`
	ResetToken       string         `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExpiry *time.Time     `bson:"reset_token_expiry,omitempty" json:"-"`
	Course           string         `bson:"course,omitempty" json:"course,omitempty" example:"BTech"`
	Branch           string         `bson:"branch,omitempty" json:"branch,omitempty" example:"CSE"`
	AdmissionYear    int            `bson:"admission_year,omitempty" json:"admission_year,omitempty" example:"2022"`
	PassoutYear      int            `bson:"passout_year,omitempty" json:"passout_year,omitempty" example:"2026"`
	Specialization   string         `bson:"specialization,omitempty" json:"specialization,omitempty" example:"Machine Learning"`
	CreatedBy        *bson.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd1"`
	Bootstrap        bool           `bson:"bootstrap,omitempty" json:"-"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// Claims is what a session token carries.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// StartRegistrationRequest begins student sign-up by mailing a code.
type StartRegistrationRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
}

// ResendOTPRequest re-issues a code for a pending registration.
type ResendOTPRequest = StartRegistrationRequest

// CompleteRegistrationRequest carries the student profile and the mailed code.
type CompleteRegistrationRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100" example:"Ada Lovelace"`
	Email         string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
	Phone         string `json:"phone" validate:"required,phone" example:"+919876543210"`
	Password      string `json:"password" validate:"required,password" example:"Password123"`
	Course        string `json:"course" validate:"required,course" example:"BTech"`
	Branch        string `json:"branch" validate:"required,max=100" example:"CSE"`
	AdmissionYear int    `json:"admission_year" validate:"required,gte=1990,lte=2100" example:"2022"`
	PassoutYear   int    `json:"passout_year" validate:"required,gtefield=AdmissionYear,lte=2100" example:"2026"`
	OTP           string `json:"otp" validate:"required,len=6,numeric" example:"482913"`
}

// VerifyOTPRequest checks a code without consuming it.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
	OTP   string `json:"otp" validate:"required,len=6,numeric" example:"482913"`
}

// LoginRequest represents a login attempt for any role
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
	Password string `json:"password" validate:"required" example:"Password123"`
}

// LoginResponse is returned on successful authentication
type LoginResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.e30.1234567890"`
	Role  Role   `json:"role" swaggertype:"string" example:"student"`
	Name  string `json:"name" example:"Ada Lovelace"`
	Email string `json:"email" example:"student@nsec.ac.in"`
}

// RegistrationResponse is returned when a student account is created
type RegistrationResponse struct {
	Message    string `json:"message" example:"Registration successful"`
	IsVerified bool   `json:"is_verified" example:"true"`
	User       *User  `json:"user"`
}

// ForgotPasswordRequest asks for a reset link
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
}

// ResetPasswordRequest redeems a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,hexadecimal,len=40" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b"`
	NewPassword string `json:"new_password" validate:"required,password" example:"NewPassword123"`
	Role        string `json:"role" validate:"required" example:"student"`
}

// VerifyAccountRequest is the operator override payload
type VerifyAccountRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@nsec.ac.in"`
}

// VerificationStatus is the read-only view of an account's verification flag
type VerificationStatus struct {
	Email      string `json:"email" example:"student@nsec.ac.in"`
	Role       Role   `json:"role" swaggertype:"string" example:"student"`
	IsVerified bool   `json:"is_verified" example:"false"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message" example:"OTP sent to your email"`
}
