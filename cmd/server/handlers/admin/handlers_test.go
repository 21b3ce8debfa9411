package admin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/cmd/server/middlewares"
	"placement-portal/cmd/server/testutil"
	"placement-portal/internal/services/admin"
	"placement-portal/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MockAdminService mocks the admin service
type MockAdminService struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*auth.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func usersResult(args mock.Arguments) ([]*auth.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auth.User), args.Error(1)
}

func (m *MockAdminService) Exists(ctx context.Context) (*admin.ExistsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.ExistsResponse), args.Error(1)
}

func (m *MockAdminService) Bootstrap(ctx context.Context, req admin.CreateAdminRequest) (*auth.User, error) {
	return userResult(m.Called(ctx, req))
}

func (m *MockAdminService) CreateAdmin(ctx context.Context, creatorID bson.ObjectID, req admin.CreateAdminRequest) (*auth.User, error) {
	return userResult(m.Called(ctx, creatorID, req))
}

func (m *MockAdminService) DeleteAdmin(ctx context.Context, callerID, targetID bson.ObjectID) (*auth.User, error) {
	return userResult(m.Called(ctx, callerID, targetID))
}

func (m *MockAdminService) Profile(ctx context.Context, adminID bson.ObjectID) (*auth.User, error) {
	return userResult(m.Called(ctx, adminID))
}

func (m *MockAdminService) UpdateProfile(ctx context.Context, adminID bson.ObjectID, req admin.UpdateProfileRequest) (*auth.User, error) {
	return userResult(m.Called(ctx, adminID, req))
}

func (m *MockAdminService) CreateFaculty(ctx context.Context, adminID bson.ObjectID, req admin.CreateFacultyRequest) (*auth.User, error) {
	return userResult(m.Called(ctx, adminID, req))
}

func (m *MockAdminService) ListFaculty(ctx context.Context, adminID bson.ObjectID) ([]*auth.User, error) {
	return usersResult(m.Called(ctx, adminID))
}

func (m *MockAdminService) UpdateFaculty(ctx context.Context, adminID, facultyID bson.ObjectID, req admin.UpdateFacultyRequest) (*auth.User, error) {
	return userResult(m.Called(ctx, adminID, facultyID, req))
}

func (m *MockAdminService) DeleteFaculty(ctx context.Context, adminID, facultyID bson.ObjectID) error {
	return m.Called(ctx, adminID, facultyID).Error(0)
}

func (m *MockAdminService) ListStudents(ctx context.Context) ([]*auth.User, error) {
	return usersResult(m.Called(ctx))
}

type adminTestSetup struct {
	svc     *MockAdminService
	app     *fiber.App
	adminID bson.ObjectID
	token   string
}

// setupAdminTest mirrors the production route table for the admin group.
func setupAdminTest(t *testing.T) *adminTestSetup {
	t.Helper()

	svc := &MockAdminService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(svc, testutil.CreateTestValidator(t))

	grp := app.Group("/api/v1/admin")
	grp.Get("/exists", h.Exists)
	grp.Post("/bootstrap", h.Bootstrap)

	secured := grp.Group("", testutil.SetupJWTMiddleware(testutil.TestJWTSecret), middlewares.RequireRole(auth.RoleAdmin))
	secured.Post("/admins", h.CreateAdmin)
	secured.Delete("/admins/:id", h.DeleteAdmin)
	secured.Get("/profile", h.Profile)
	secured.Put("/profile", h.UpdateProfile)
	secured.Post("/faculty", h.CreateFaculty)
	secured.Get("/faculty", h.ListFaculty)
	secured.Patch("/faculty/:id", h.UpdateFaculty)
	secured.Delete("/faculty/:id", h.DeleteFaculty)
	secured.Get("/students", h.ListStudents)

	adminID := bson.NewObjectID()
	return &adminTestSetup{
		svc:     svc,
		app:     app,
		adminID: adminID,
		token:   testutil.MustJWT(t, adminID.Hex(), "admin@nsec.ac.in", "admin"),
	}
}

func (s *adminTestSetup) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	resp, err := s.app.Test(testutil.CreateAuthenticatedRequest(method, path, body, s.token), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	return resp.StatusCode, raw
}

func strPtr(s string) *string { return &s }

func TestExistsAndBootstrap(t *testing.T) {
	s := setupAdminTest(t)

	s.svc.On("Exists", mock.Anything).Return(&admin.ExistsResponse{Exists: false}, nil).Once()
	resp, err := s.app.Test(testutil.CreateJSONRequest("GET", "/api/v1/admin/exists", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var exists admin.ExistsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exists))
	assert.False(t, exists.Exists)

	req := admin.CreateAdminRequest{Name: "Placement Officer", Email: "admin@nsec.ac.in", Password: "Password123"}
	s.svc.On("Bootstrap", mock.Anything, req).
		Return(&auth.User{ID: bson.NewObjectID(), Role: auth.RoleAdmin, Email: req.Email, IsVerified: true}, nil).Once()
	s.svc.On("Bootstrap", mock.Anything, req).Return(nil, admin.ErrAdminExists).Once()

	resp, err = s.app.Test(testutil.CreateJSONRequest("POST", "/api/v1/admin/bootstrap", req), -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	resp, err = s.app.Test(testutil.CreateJSONRequest("POST", "/api/v1/admin/bootstrap", req), -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, httperr.KindAdminExists, testutil.DecodeError(t, resp).Kind)

	s.svc.AssertExpectations(t)
}

func TestBootstrap_WeakPassword(t *testing.T) {
	s := setupAdminTest(t)

	body := admin.CreateAdminRequest{Name: "Placement Officer", Email: "admin@nsec.ac.in", Password: "password"}
	resp, err := s.app.Test(testutil.CreateJSONRequest("POST", "/api/v1/admin/bootstrap", body), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	s.svc.AssertNotCalled(t, "Bootstrap", mock.Anything, mock.Anything)
}

func TestSecuredRoutesRequireAdmin(t *testing.T) {
	s := setupAdminTest(t)

	resp, err := s.app.Test(testutil.CreateJSONRequest("GET", "/api/v1/admin/faculty", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	student := testutil.MustJWT(t, bson.NewObjectID().Hex(), "student@nsec.ac.in", "student")
	resp, err = s.app.Test(testutil.CreateAuthenticatedRequest("GET", "/api/v1/admin/students", nil, student), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, httperr.KindForbidden, testutil.DecodeError(t, resp).Kind)
}

func TestAdminHandlersTableDriven(t *testing.T) {
	facultyID := bson.NewObjectID()
	otherAdminID := bson.NewObjectID()
	faculty := &auth.User{ID: facultyID, Role: auth.RoleFaculty, Email: "rao@nsec.ac.in", Name: "Dr. Rao", IsVerified: true}

	createFaculty := admin.CreateFacultyRequest{
		Name: "Dr. Rao", Email: "rao@nsec.ac.in", Phone: "+919876543210",
		Password: "Password123", Specialization: "Machine Learning",
	}

	testCases := []struct {
		name           string
		method         string
		path           string
		body           any
		setupMock      func(s *adminTestSetup)
		expectedStatus int
		expectedKind   string
	}{
		{
			name:   "CreateAdmin_Success",
			method: "POST", path: "/api/v1/admin/admins",
			body: admin.CreateAdminRequest{Name: "Second Admin", Email: "two@nsec.ac.in", Password: "Password123"},
			setupMock: func(s *adminTestSetup) {
				s.svc.On("CreateAdmin", mock.Anything, s.adminID, mock.Anything).
					Return(&auth.User{ID: bson.NewObjectID(), Role: auth.RoleAdmin}, nil).Once()
			},
			expectedStatus: 201,
		},
		{
			name:   "CreateAdmin_DuplicateEmail",
			method: "POST", path: "/api/v1/admin/admins",
			body: admin.CreateAdminRequest{Name: "Second Admin", Email: "two@nsec.ac.in", Password: "Password123"},
			setupMock: func(s *adminTestSetup) {
				s.svc.On("CreateAdmin", mock.Anything, s.adminID, mock.Anything).Return(nil, auth.ErrDuplicateEmail).Once()
			},
			expectedStatus: 409,
			expectedKind:   httperr.KindDuplicateEmail,
		},
		{
			name:   "DeleteAdmin_Self",
			method: "DELETE", path: "/api/v1/admin/admins/SELF",
			setupMock: func(s *adminTestSetup) {
				s.svc.On("DeleteAdmin", mock.Anything, s.adminID, s.adminID).Return(nil, admin.ErrDeleteSelf).Once()
			},
			expectedStatus: 400,
			expectedKind:   httperr.KindInvalidInput,
		},
		{
			name:   "DeleteAdmin_LastAdmin",
			method: "DELETE", path: "/api/v1/admin/admins/" + otherAdminID.Hex(),
			setupMock: func(s *adminTestSetup) {
				s.svc.On("DeleteAdmin", mock.Anything, s.adminID, otherAdminID).Return(nil, admin.ErrLastAdmin).Once()
			},
			expectedStatus: 409,
			expectedKind:   httperr.KindLastAdmin,
		},
		{
			name:   "DeleteAdmin_NotAnAdmin",
			method: "DELETE", path: "/api/v1/admin/admins/" + facultyID.Hex(),
			setupMock: func(s *adminTestSetup) {
				s.svc.On("DeleteAdmin", mock.Anything, s.adminID, facultyID).Return(nil, admin.ErrAdminNotFound).Once()
			},
			expectedStatus: 404,
			expectedKind:   httperr.KindNotFound,
		},
		{
			name:   "DeleteAdmin_MalformedID",
			method: "DELETE", path: "/api/v1/admin/admins/not-an-id",
			setupMock:      func(*adminTestSetup) {},
			expectedStatus: 404,
		},
		{
			name:   "Profile_Success",
			method: "GET", path: "/api/v1/admin/profile",
			setupMock: func(s *adminTestSetup) {
				s.svc.On("Profile", mock.Anything, s.adminID).
					Return(&auth.User{ID: s.adminID, Role: auth.RoleAdmin, Email: "admin@nsec.ac.in"}, nil).Once()
			},
			expectedStatus: 200,
		},
		{
			name:   "UpdateProfile_NoChanges",
			method: "PUT", path: "/api/v1/admin/profile",
			body: map[string]any{},
			setupMock: func(s *adminTestSetup) {
				s.svc.On("UpdateProfile", mock.Anything, s.adminID, admin.UpdateProfileRequest{}).Return(nil, admin.ErrNoChanges).Once()
			},
			expectedStatus: 400,
			expectedKind:   httperr.KindInvalidInput,
		},
		{
			name:   "UpdateProfile_BadPhone",
			method: "PUT", path: "/api/v1/admin/profile",
			body:           admin.UpdateProfileRequest{Phone: strPtr("12345")},
			setupMock:      func(*adminTestSetup) {},
			expectedStatus: 400,
			expectedKind:   httperr.KindInvalidInput,
		},
		{
			name:   "CreateFaculty_Success",
			method: "POST", path: "/api/v1/admin/faculty",
			body: createFaculty,
			setupMock: func(s *adminTestSetup) {
				s.svc.On("CreateFaculty", mock.Anything, s.adminID, createFaculty).Return(faculty, nil).Once()
			},
			expectedStatus: 201,
		},
		{
			name:   "ListFaculty_Success",
			method: "GET", path: "/api/v1/admin/faculty",
			setupMock: func(s *adminTestSetup) {
				s.svc.On("ListFaculty", mock.Anything, s.adminID).Return([]*auth.User{faculty}, nil).Once()
			},
			expectedStatus: 200,
		},
		{
			name:   "UpdateFaculty_NotOwned",
			method: "PATCH", path: "/api/v1/admin/faculty/" + facultyID.Hex(),
			body: admin.UpdateFacultyRequest{Specialization: strPtr("Data Science")},
			setupMock: func(s *adminTestSetup) {
				s.svc.On("UpdateFaculty", mock.Anything, s.adminID, facultyID, mock.Anything).Return(nil, admin.ErrFacultyNotFound).Once()
			},
			expectedStatus: 404,
			expectedKind:   httperr.KindNotFound,
		},
		{
			name:   "UpdateFaculty_MalformedID",
			method: "PATCH", path: "/api/v1/admin/faculty/not-an-id",
			body:           admin.UpdateFacultyRequest{Name: strPtr("Dr. Rao")},
			setupMock:      func(*adminTestSetup) {},
			expectedStatus: 404,
		},
		{
			name:   "DeleteFaculty_Success",
			method: "DELETE", path: "/api/v1/admin/faculty/" + facultyID.Hex(),
			setupMock: func(s *adminTestSetup) {
				s.svc.On("DeleteFaculty", mock.Anything, s.adminID, facultyID).Return(nil).Once()
			},
			expectedStatus: 204,
		},
		{
			name:   "ListStudents_StoreFailure",
			method: "GET", path: "/api/v1/admin/students",
			setupMock: func(s *adminTestSetup) {
				s.svc.On("ListStudents", mock.Anything).Return(nil, errors.New("socket closed")).Once()
			},
			expectedStatus: 500,
			expectedKind:   httperr.KindInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := setupAdminTest(t)
			tc.setupMock(s)

			path := strings.Replace(tc.path, "SELF", s.adminID.Hex(), 1)
			resp, err := s.app.Test(testutil.CreateAuthenticatedRequest(tc.method, path, tc.body, s.token), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			if tc.expectedKind != "" {
				assert.Equal(t, tc.expectedKind, testutil.DecodeError(t, resp).Kind)
			}

			s.svc.AssertExpectations(t)
		})
	}
}

func TestListFaculty_ResponseShape(t *testing.T) {
	s := setupAdminTest(t)
	s.svc.On("ListFaculty", mock.Anything, s.adminID).Return([]*auth.User{}, nil).Once()

	status, raw := s.do(t, "GET", "/api/v1/admin/faculty", nil)
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"users":[]}`, string(raw))
}

func TestDeleteAdmin_ResponseShape(t *testing.T) {
	s := setupAdminTest(t)
	targetID := bson.NewObjectID()
	s.svc.On("DeleteAdmin", mock.Anything, s.adminID, targetID).
		Return(&auth.User{ID: targetID, Role: auth.RoleAdmin, Name: "Old Admin", Email: "old@nsec.ac.in"}, nil).Once()

	status, raw := s.do(t, "DELETE", "/api/v1/admin/admins/"+targetID.Hex(), nil)
	require.Equal(t, 200, status)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Admin deleted successfully", body["message"])
	assert.Equal(t, targetID.Hex(), body["id"])
	assert.Equal(t, "Old Admin", body["name"])
	assert.NotContains(t, body, "password_hash")
}

func TestDeleteAdmin_RequiresAdminRole(t *testing.T) {
	s := setupAdminTest(t)

	faculty := testutil.MustJWT(t, bson.NewObjectID().Hex(), "rao@nsec.ac.in", "faculty")
	resp, err := s.app.Test(testutil.CreateAuthenticatedRequest("DELETE", "/api/v1/admin/admins/"+bson.NewObjectID().Hex(), nil, faculty), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	s.svc.AssertNotCalled(t, "DeleteAdmin", mock.Anything, mock.Anything, mock.Anything)
}
