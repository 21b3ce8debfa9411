package admin

import "errors"

var (
	// ErrAdminExists is returned by Bootstrap once any admin account exists.
	ErrAdminExists = errors.New("an admin account already exists")
	// ErrFacultyNotFound covers both missing faculty and faculty owned by another admin.
	ErrFacultyNotFound = errors.New("faculty not found")
	// ErrNoChanges is returned for an update request without any field set.
	ErrNoChanges = errors.New("no fields to update")
	// ErrAdminNotFound is returned when the target of an admin delete is not an admin.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrDeleteSelf is returned when an admin tries to delete their own account.
	ErrDeleteSelf = errors.New("admins cannot delete their own account")
	// ErrLastAdmin is returned when a delete would leave no admin account.
	ErrLastAdmin = errors.New("cannot delete the last admin")
)
