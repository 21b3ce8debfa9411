package activity

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types published by the auth and admin services.
const (
	TypeOTPIssued         = "otp_issued"
	TypeStudentRegistered = "student_registered"
	TypeAccountVerified   = "account_verified"
	TypePasswordReset     = "password_reset"
	TypeFacultyCreated    = "faculty_created"
	TypeFacultyDeleted    = "faculty_deleted"
	TypeAdminCreated      = "admin_created"
	TypeAdminDeleted      = "admin_deleted"
)

// Event is a single account lifecycle notification.
type Event struct {
	ID    ulid.ULID `json:"id" swaggertype:"string" example:"01J0Z3N6M3K2VQ6Y5X4W3V2T1S"`
	Type  string    `json:"type" example:"student_registered"`
	Email string    `json:"email" example:"student@nsec.ac.in"`
	Role  string    `json:"role" example:"student"`
	At    time.Time `json:"at" example:"2025-06-01T23:00:26.005703677Z"`
}

// NewEvent stamps a new event with a fresh ULID and the current time.
func NewEvent(typ, email, role string) Event {
	now := time.Now().UTC()
	return Event{
		ID:    ulid.MustNew(ulid.Timestamp(now), rand.Reader),
		Type:  typ,
		Email: email,
		Role:  role,
		At:    now,
	}
}
