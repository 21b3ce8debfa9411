package auth

import (
	"context"
	"time"

	"placement-portal/internal/services/activity"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo defines the persistence operations the auth flows need
type UsersRepo interface {
	// Create inserts user and returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *User) error
	// ReplaceUnverifiedStudent overwrites a pending student record with user.
	// It returns ErrDuplicate if the stored record is no longer an unverified student.
	ReplaceUnverifiedStudent(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	// FindByResetToken returns the role's record holding token, expired or not.
	FindByResetToken(ctx context.Context, role Role, token string) (*User, error)
	SetResetToken(ctx context.Context, id bson.ObjectID, token string, expiry time.Time) error
	// ClearResetToken unsets the reset fields only while they still hold token.
	ClearResetToken(ctx context.Context, id bson.ObjectID, token string) error
	// RedeemResetToken atomically swaps in passwordHash and clears the reset
	// fields of the role's record holding an unexpired token. It returns
	// ErrUserNotFound when none matches; an expired match is cleared anyway.
	RedeemResetToken(ctx context.Context, role Role, token, passwordHash string, now time.Time) (*User, error)
	SetVerified(ctx context.Context, email string) (*User, error)
}

// Mailer delivers transactional mail
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Publisher receives account lifecycle events
type Publisher interface {
	Publish(ev activity.Event)
}
