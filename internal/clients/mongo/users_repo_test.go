//go:build !short

package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"placement-portal/internal/services/admin"
	"placement-portal/internal/services/auth"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	sharedURIOnce sync.Once
	sharedURI     string
	sharedURIErr  error
)

// testMongoURI prefers MONGO_TEST_URI and otherwise starts one mongo:8.0
// container shared by the package's tests.
func testMongoURI(t *testing.T) (string, error) {
	t.Helper()
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		return uri, nil
	}

	sharedURIOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:8.0",
				ExposedPorts: []string{"27017/tcp"},
				WaitingFor: wait.ForExec([]string{"mongosh", "--eval", "db.adminCommand('ping')"}).
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			sharedURIErr = err
			return
		}

		host, err := c.Host(ctx)
		if err != nil {
			sharedURIErr = err
			return
		}
		port, err := c.MappedPort(ctx, "27017")
		if err != nil {
			sharedURIErr = err
			return
		}
		sharedURI = fmt.Sprintf("mongodb://%s:%s/", host, port.Port())
	})
	return sharedURI, sharedURIErr
}

func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	t.Helper()

	uri, err := testMongoURI(t)
	if err != nil {
		t.Skip("MongoDB not available for testing:", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Skip("MongoDB not available for testing:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		t.Skip("MongoDB ping failed:", err)
	}

	db := client.Database("test_placement_" + bson.NewObjectID().Hex())

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}
	return db, cleanup
}

func newTestRepo(t *testing.T) *UsersRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test")
	}

	db, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	repo, err := NewUsersRepo(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func fakeUser(role auth.Role) *auth.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &auth.User{
		ID:           bson.NewObjectID(),
		Role:         role,
		Email:        gofakeit.Username() + bson.NewObjectID().Hex()[18:] + "@nsec.ac.in",
		PasswordHash: "$2a$10$hash",
		Name:         gofakeit.Name(),
		Phone:        "+919876543210",
		IsVerified:   role != auth.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsersRepo_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, user))

	dup := fakeUser(auth.RoleFaculty)
	dup.Email = user.Email
	assert.ErrorIs(t, repo.Create(ctx, dup), auth.ErrDuplicate, "email is unique across roles")

	found, err := repo.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, auth.RoleStudent, found.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@nsec.ac.in")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_ReplaceUnverifiedStudent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pending := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, pending))

	fresh := fakeUser(auth.RoleStudent)
	fresh.ID = bson.NewObjectID()
	fresh.Email = pending.Email
	fresh.Name = "Replaced Name"
	fresh.IsVerified = true

	require.NoError(t, repo.ReplaceUnverifiedStudent(ctx, fresh))
	assert.Equal(t, pending.ID, fresh.ID, "stored id is kept")

	got, err := repo.FindByEmail(ctx, pending.Email)
	require.NoError(t, err)
	assert.Equal(t, "Replaced Name", got.Name)
	assert.True(t, got.IsVerified)

	again := fakeUser(auth.RoleStudent)
	again.Email = pending.Email
	assert.ErrorIs(t, repo.ReplaceUnverifiedStudent(ctx, again), auth.ErrDuplicate, "verified record is never overwritten")
}

func TestUsersRepo_ResetToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := fakeUser(auth.RoleFaculty)
	require.NoError(t, repo.Create(ctx, user))

	const token = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b"
	require.NoError(t, repo.SetResetToken(ctx, user.ID, token, now.Add(time.Hour)))

	holder, err := repo.FindByResetToken(ctx, auth.RoleFaculty, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, holder.ID)
	require.NotNil(t, holder.ResetTokenExpiry)

	_, err = repo.FindByResetToken(ctx, auth.RoleStudent, token)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	_, err = repo.FindByResetToken(ctx, auth.RoleFaculty, "")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repo.RedeemResetToken(ctx, auth.RoleStudent, token, "$2a$10$new", now)
	assert.ErrorIs(t, err, auth.ErrUserNotFound, "token is bound to the role")

	got, err := repo.RedeemResetToken(ctx, auth.RoleFaculty, token, "$2a$10$new", now)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$new", got.PasswordHash)
	assert.Empty(t, got.ResetToken)
	assert.Nil(t, got.ResetTokenExpiry)

	_, err = repo.RedeemResetToken(ctx, auth.RoleFaculty, token, "$2a$10$other", now)
	assert.ErrorIs(t, err, auth.ErrUserNotFound, "token is single use")
}

func TestUsersRepo_ExpiredResetTokenIsCleared(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, user))

	const token = "0000000000000000000000000000000000000001"
	require.NoError(t, repo.SetResetToken(ctx, user.ID, token, now.Add(-time.Minute)))

	_, err := repo.RedeemResetToken(ctx, auth.RoleStudent, token, "$2a$10$new", now)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetToken)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
}

func TestUsersRepo_ClearResetTokenOnlyMatching(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.SetResetToken(ctx, user.ID, "newer", time.Now().Add(time.Hour)))

	require.NoError(t, repo.ClearResetToken(ctx, user.ID, "older"))
	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.ResetToken)

	require.NoError(t, repo.ClearResetToken(ctx, user.ID, "newer"))
	got, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetToken)
}

func TestUsersRepo_SetVerified(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.SetVerified(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	got, err = repo.SetVerified(ctx, user.Email)
	require.NoError(t, err, "idempotent")
	assert.True(t, got.IsVerified)

	_, err = repo.SetVerified(ctx, "ghost@nsec.ac.in")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_BootstrapIsUnique(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	exists, err := repo.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	first := fakeUser(auth.RoleAdmin)
	first.Bootstrap = true
	require.NoError(t, repo.Create(ctx, first))

	second := fakeUser(auth.RoleAdmin)
	second.Bootstrap = true
	assert.ErrorIs(t, repo.Create(ctx, second), auth.ErrDuplicate)

	// regular admins carry no bootstrap marker
	regular := fakeUser(auth.RoleAdmin)
	require.NoError(t, repo.Create(ctx, regular))

	exists, err = repo.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUsersRepo_AdminProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	adm := fakeUser(auth.RoleAdmin)
	require.NoError(t, repo.Create(ctx, adm))

	name := "Updated Officer"
	got, err := repo.UpdateAdminProfile(ctx, adm.ID, admin.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, adm.Phone, got.Phone)

	student := fakeUser(auth.RoleStudent)
	require.NoError(t, repo.Create(ctx, student))
	_, err = repo.UpdateAdminProfile(ctx, student.ID, admin.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_FacultyOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	owner := fakeUser(auth.RoleAdmin)
	other := fakeUser(auth.RoleAdmin)
	require.NoError(t, repo.Create(ctx, owner))
	require.NoError(t, repo.Create(ctx, other))

	var created []*auth.User
	for i := range 3 {
		f := fakeUser(auth.RoleFaculty)
		f.CreatedBy = &owner.ID
		f.CreatedAt = f.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, f))
		created = append(created, f)
	}

	list, err := repo.ListFacultyByCreator(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, created[2].ID, list[0].ID, "newest first")

	none, err := repo.ListFacultyByCreator(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	field := "Data Science"
	_, err = repo.UpdateOwnedFaculty(ctx, other.ID, created[0].ID, admin.ProfileUpdate{Specialization: &field})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	upd, err := repo.UpdateOwnedFaculty(ctx, owner.ID, created[0].ID, admin.ProfileUpdate{Specialization: &field})
	require.NoError(t, err)
	assert.Equal(t, field, upd.Specialization)

	_, err = repo.DeleteOwnedFaculty(ctx, other.ID, created[1].ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	deleted, err := repo.DeleteOwnedFaculty(ctx, owner.ID, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, created[1].Email, deleted.Email)

	_, err = repo.FindByID(ctx, created[1].ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_ListVerifiedStudents(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	verified := fakeUser(auth.RoleStudent)
	verified.IsVerified = true
	pending := fakeUser(auth.RoleStudent)
	faculty := fakeUser(auth.RoleFaculty)
	for _, u := range []*auth.User{verified, pending, faculty} {
		require.NoError(t, repo.Create(ctx, u))
	}

	list, err := repo.ListVerifiedStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, verified.ID, list[0].ID)
}

func TestUsersRepo_DeleteAdminAndReassignFaculty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	keeper := fakeUser(auth.RoleAdmin)
	leaver := fakeUser(auth.RoleAdmin)
	require.NoError(t, repo.Create(ctx, keeper))
	require.NoError(t, repo.Create(ctx, leaver))

	f := fakeUser(auth.RoleFaculty)
	f.CreatedBy = &leaver.ID
	require.NoError(t, repo.Create(ctx, f))

	n, err := repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.DeleteAdmin(ctx, f.ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound, "only admins are deleted")

	deleted, err := repo.DeleteAdmin(ctx, leaver.ID)
	require.NoError(t, err)
	assert.Equal(t, leaver.Email, deleted.Email)

	moved, err := repo.ReassignFaculty(ctx, leaver.ID, keeper.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	list, err := repo.ListFacultyByCreator(ctx, keeper.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.ID, list[0].ID)

	n, err = repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
