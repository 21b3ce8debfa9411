package admin

import (
	"context"

	"placement-portal/internal/services/activity"
	"placement-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo defines the persistence operations admin management needs
type UsersRepo interface {
	Create(ctx context.Context, user *auth.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error)
	AdminExists(ctx context.Context) (bool, error)
	CountAdmins(ctx context.Context) (int64, error)
	DeleteAdmin(ctx context.Context, id bson.ObjectID) (*auth.User, error)
	ReassignFaculty(ctx context.Context, fromAdminID, toAdminID bson.ObjectID) (int64, error)
	UpdateAdminProfile(ctx context.Context, id bson.ObjectID, upd ProfileUpdate) (*auth.User, error)
	ListFacultyByCreator(ctx context.Context, adminID bson.ObjectID) ([]*auth.User, error)
	UpdateOwnedFaculty(ctx context.Context, adminID, facultyID bson.ObjectID, upd ProfileUpdate) (*auth.User, error)
	DeleteOwnedFaculty(ctx context.Context, adminID, facultyID bson.ObjectID) (*auth.User, error)
	ListVerifiedStudents(ctx context.Context) ([]*auth.User, error)
}

// Publisher receives account lifecycle events
type Publisher interface {
	Publish(ev activity.Event)
}
