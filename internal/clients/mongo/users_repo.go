package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"placement-portal/internal/services/admin"
	"placement-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

var (
	_ auth.UsersRepo  = (*UsersRepo)(nil)
	_ admin.UsersRepo = (*UsersRepo)(nil)
)

// UsersRepo stores every account, regardless of role, in one collection
type UsersRepo struct {
	collection *mongo.Collection
}

// NewUsersRepo creates the users repository and ensures its indexes
func NewUsersRepo(ctx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection(usersCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token"),
		},
		{
			// at most one document may claim to be the first admin
			Keys: bson.D{{Key: "bootstrap", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"bootstrap": bson.M{"$exists": true}}).
				SetName("uniq_bootstrap"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_by_created_at"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "is_verified", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("role_verified_created_at"),
		},
	}

	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create users indexes: %w", err)
	}

	return &UsersRepo{collection: collection}, nil
}

// Create inserts a new account
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return err
	}
	return nil
}

// ReplaceUnverifiedStudent overwrites a pending student record in place,
// keeping its _id and created_at.
func (r *UsersRepo) ReplaceUnverifiedStudent(ctx context.Context, user *auth.User) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	filter := bson.M{
		"email":       user.Email,
		"role":        auth.RoleStudent,
		"is_verified": false,
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash":  user.PasswordHash,
			"name":           user.Name,
			"phone":          user.Phone,
			"is_verified":    user.IsVerified,
			"course":         user.Course,
			"branch":         user.Branch,
			"admission_year": user.AdmissionYear,
			"passout_year":   user.PassoutYear,
			"updated_at":     user.UpdatedAt,
		},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored auth.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auth.ErrDuplicate
	}
	if err != nil {
		return err
	}

	user.ID = stored.ID
	user.CreatedAt = stored.CreatedAt
	return nil
}

// FindByEmail returns the account for email. Should more than one document
// share the address, admin wins over faculty, faculty over student.
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	cur, err := r.collection.Find(ctx, bson.M{"email": email}, options.Find().SetLimit(3))
	if err != nil {
		return nil, err
	}

	var users []*auth.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, auth.ErrUserNotFound
	}

	best := users[0]
	for _, u := range users[1:] {
		if u.Role.Priority() < best.Role.Priority() {
			best = u
		}
	}
	return best, nil
}

// FindByID returns the account with the given id
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// AdminExists reports whether at least one admin account is stored
func (r *UsersRepo) AdminExists(ctx context.Context) (bool, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"role": auth.RoleAdmin}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountAdmins returns the number of admin accounts
func (r *UsersRepo) CountAdmins(ctx context.Context) (int64, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"role": auth.RoleAdmin})
}

// DeleteAdmin removes an admin account and returns it
func (r *UsersRepo) DeleteAdmin(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var user auth.User
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id, "role": auth.RoleAdmin}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReassignFaculty moves every faculty created by fromAdminID to toAdminID
func (r *UsersRepo) ReassignFaculty(ctx context.Context, fromAdminID, toAdminID bson.ObjectID) (int64, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	res, err := r.collection.UpdateMany(ctx,
		bson.M{"role": auth.RoleFaculty, "created_by": fromAdminID},
		bson.M{"$set": bson.M{"created_by": toAdminID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindByResetToken returns the record of role holding token
func (r *UsersRepo) FindByResetToken(ctx context.Context, role auth.Role, token string) (*auth.User, error) {
	if token == "" {
		return nil, auth.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"role": role, "reset_token": token})
}

// SetResetToken stores a reset token, replacing any earlier one
func (r *UsersRepo) SetResetToken(ctx context.Context, id bson.ObjectID, token string, expiry time.Time) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"reset_token": token, "reset_token_expiry": expiry.UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// ClearResetToken unsets the reset fields only while they still hold token
func (r *UsersRepo) ClearResetToken(ctx context.Context, id bson.ObjectID, token string) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "reset_token": token},
		bson.M{"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""}},
	)
	return err
}

// RedeemResetToken swaps in a new password hash for the role's account holding
// an unexpired token and clears the token in the same write.
func (r *UsersRepo) RedeemResetToken(ctx context.Context, role auth.Role, token, passwordHash string, now time.Time) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	filter := bson.M{
		"role":               role,
		"reset_token":        token,
		"reset_token_expiry": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now.UTC()},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// an expired token is spent as well
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"role": role, "reset_token": token},
		bson.M{"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""}},
	); err != nil {
		return nil, err
	}
	return nil, auth.ErrUserNotFound
}

// SetVerified marks the account verified and returns it
func (r *UsersRepo) SetVerified(ctx context.Context, email string) (*auth.User, error) {
	return r.updateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{"is_verified": true, "updated_at": time.Now().UTC()},
	})
}

// UpdateAdminProfile applies upd to the admin with the given id
func (r *UsersRepo) UpdateAdminProfile(ctx context.Context, id bson.ObjectID, upd admin.ProfileUpdate) (*auth.User, error) {
	return r.updateOne(ctx,
		bson.M{"_id": id, "role": auth.RoleAdmin},
		bson.M{"$set": profileSet(upd)},
	)
}

// ListFacultyByCreator returns faculty created by adminID, newest first
func (r *UsersRepo) ListFacultyByCreator(ctx context.Context, adminID bson.ObjectID) ([]*auth.User, error) {
	return r.list(ctx, bson.M{"role": auth.RoleFaculty, "created_by": adminID})
}

// UpdateOwnedFaculty applies upd to a faculty created by adminID
func (r *UsersRepo) UpdateOwnedFaculty(ctx context.Context, adminID, facultyID bson.ObjectID, upd admin.ProfileUpdate) (*auth.User, error) {
	return r.updateOne(ctx,
		bson.M{"_id": facultyID, "role": auth.RoleFaculty, "created_by": adminID},
		bson.M{"$set": profileSet(upd)},
	)
}

// DeleteOwnedFaculty removes a faculty created by adminID and returns it
func (r *UsersRepo) DeleteOwnedFaculty(ctx context.Context, adminID, facultyID bson.ObjectID) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var user auth.User
	err := r.collection.FindOneAndDelete(ctx,
		bson.M{"_id": facultyID, "role": auth.RoleFaculty, "created_by": adminID},
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListVerifiedStudents returns every verified student, newest first
func (r *UsersRepo) ListVerifiedStudents(ctx context.Context) ([]*auth.User, error) {
	return r.list(ctx, bson.M{"role": auth.RoleStudent, "is_verified": true})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var user auth.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepo) updateOne(ctx context.Context, filter, update bson.M) (*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepo) list(ctx context.Context, filter bson.M) ([]*auth.User, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	users := make([]*auth.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func profileSet(upd admin.ProfileUpdate) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Specialization != nil {
		set["specialization"] = *upd.Specialization
	}
	return set
}
