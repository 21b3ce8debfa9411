package admin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"placement-portal/internal/services/activity"
	"placement-portal/internal/services/auth"
	"placement-portal/internal/utils/crypto"
	"placement-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles admin accounts and the faculty they manage
type Service struct {
	repo   UsersRepo
	hasher *crypto.Hasher
	events Publisher
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new admin service
func NewService(repo UsersRepo, hasher *crypto.Hasher, events Publisher, log *slog.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{repo: repo, hasher: hasher, events: events, log: log, now: time.Now}
}

// Exists reports whether any admin account exists.
func (s *Service) Exists(ctx context.Context) (*ExistsResponse, error) {
	ok, err := s.repo.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	return &ExistsResponse{Exists: ok}, nil
}

// Bootstrap creates the very first admin. It fails with ErrAdminExists
// afterwards, including when two bootstraps race.
func (s *Service) Bootstrap(ctx context.Context, req CreateAdminRequest) (*auth.User, error) {
	exists, err := s.repo.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAdminExists
	}

	user, err := s.newAccount(ctx, auth.RoleAdmin, req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	user.Bootstrap = true

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrDuplicate) {
			// the bootstrap index rejects a second first-admin
			if again, _ := s.repo.AdminExists(ctx); again {
				return nil, ErrAdminExists
			}
			return nil, auth.ErrDuplicateEmail
		}
		return nil, err
	}

	s.log.Info("first admin created", "user_id", user.ID.Hex(), "email", user.Email)
	s.events.Publish(activity.NewEvent(activity.TypeAdminCreated, user.Email, string(auth.RoleAdmin)))
	return user, nil
}

// CreateAdmin lets an existing admin create another admin.
func (s *Service) CreateAdmin(ctx context.Context, creatorID bson.ObjectID, req CreateAdminRequest) (*auth.User, error) {
	user, err := s.newAccount(ctx, auth.RoleAdmin, req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	user.CreatedBy = &creatorID

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.events.Publish(activity.NewEvent(activity.TypeAdminCreated, user.Email, string(auth.RoleAdmin)))
	return user, nil
}

// DeleteAdmin removes another admin account. Faculty owned by the removed
// admin are handed over to callerID so they stay manageable.
func (s *Service) DeleteAdmin(ctx context.Context, callerID, targetID bson.ObjectID) (*auth.User, error) {
	if callerID == targetID {
		return nil, ErrDeleteSelf
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	if target.Role != auth.RoleAdmin {
		return nil, ErrAdminNotFound
	}

	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 1 {
		return nil, ErrLastAdmin
	}

	deleted, err := s.repo.DeleteAdmin(ctx, targetID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}

	moved, err := s.repo.ReassignFaculty(ctx, targetID, callerID)
	if err != nil {
		s.log.Error("failed to reassign faculty of deleted admin", "admin_id", targetID.Hex(), "error", err)
	} else if moved > 0 {
		s.log.Info("faculty reassigned", "from_admin_id", targetID.Hex(), "to_admin_id", callerID.Hex(), "count", moved)
	}

	s.log.Info("admin deleted", "admin_id", targetID.Hex(), "by", callerID.Hex())
	s.events.Publish(activity.NewEvent(activity.TypeAdminDeleted, deleted.Email, string(auth.RoleAdmin)))
	return deleted, nil
}

// Profile returns the caller's admin record.
func (s *Service) Profile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error) {
	user, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if user.Role != auth.RoleAdmin {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes name and/or phone of the caller.
func (s *Service) UpdateProfile(ctx context.Context, adminID bson.ObjectID, req UpdateProfileRequest) (*auth.User, error) {
	upd := ProfileUpdate{Name: sanitize.CleanPtr(req.Name), Phone: trimPtr(req.Phone)}
	if upd.Empty() {
		return nil, ErrNoChanges
	}
	return s.repo.UpdateAdminProfile(ctx, adminID, upd)
}

// CreateFaculty creates a verified faculty account owned by adminID.
func (s *Service) CreateFaculty(ctx context.Context, adminID bson.ObjectID, req CreateFacultyRequest) (*auth.User, error) {
	user, err := s.newAccount(ctx, auth.RoleFaculty, req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	user.Specialization = sanitize.Clean(req.Specialization)
	user.CreatedBy = &adminID

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("faculty created", "faculty_id", user.ID.Hex(), "admin_id", adminID.Hex())
	s.events.Publish(activity.NewEvent(activity.TypeFacultyCreated, user.Email, string(auth.RoleFaculty)))
	return user, nil
}

// ListFaculty returns the faculty created by adminID, newest first.
func (s *Service) ListFaculty(ctx context.Context, adminID bson.ObjectID) ([]*auth.User, error) {
	return s.repo.ListFacultyByCreator(ctx, adminID)
}

// UpdateFaculty applies a partial update to a faculty owned by adminID.
func (s *Service) UpdateFaculty(ctx context.Context, adminID, facultyID bson.ObjectID, req UpdateFacultyRequest) (*auth.User, error) {
	upd := ProfileUpdate{
		Name:           sanitize.CleanPtr(req.Name),
		Phone:          trimPtr(req.Phone),
		Specialization: sanitize.CleanPtr(req.Specialization),
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}

	user, err := s.repo.UpdateOwnedFaculty(ctx, adminID, facultyID, upd)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, ErrFacultyNotFound
	}
	return user, err
}

// DeleteFaculty removes a faculty owned by adminID.
func (s *Service) DeleteFaculty(ctx context.Context, adminID, facultyID bson.ObjectID) error {
	user, err := s.repo.DeleteOwnedFaculty(ctx, adminID, facultyID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return ErrFacultyNotFound
	}
	if err != nil {
		return err
	}

	s.events.Publish(activity.NewEvent(activity.TypeFacultyDeleted, user.Email, string(auth.RoleFaculty)))
	return nil
}

// ListStudents returns every verified student.
func (s *Service) ListStudents(ctx context.Context) ([]*auth.User, error) {
	return s.repo.ListVerifiedStudents(ctx)
}

func (s *Service) newAccount(ctx context.Context, role auth.Role, name, email, phone, password string) (*auth.User, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &auth.User{
		ID:           bson.NewObjectID(),
		Role:         role,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Name:         sanitize.Clean(name),
		Phone:        strings.TrimSpace(phone),
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) create(ctx context.Context, user *auth.User) error {
	err := s.repo.Create(ctx, user)
	if errors.Is(err, auth.ErrDuplicate) {
		return auth.ErrDuplicateEmail
	}
	return err
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

type nopPublisher struct{}

func (nopPublisher) Publish(activity.Event) {}
