package handler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/service"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, username, password string) (*service.Session, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func TestAccountHandler_Signup(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "created",
			wantStatus: 201,
			wantBody:   map[string]any{"message": "User created successfully"},
		},
		{
			name:       "username taken",
			serviceErr: domain.ErrUsernameTaken,
			wantStatus: 400,
			wantBody:   map[string]any{"error": "Username already exists", "code": "USERNAME_TAKEN"},
		},
		{
			name:       "missing fields",
			serviceErr: domain.ErrCredentialsRequired,
			wantStatus: 400,
			wantBody:   map[string]any{"error": "Username and password are required", "code": "VALIDATION_FAILED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAccountService)
			if tt.serviceErr != nil {
				svc.On("Signup", mock.Anything, "alice", "s3cretpass").Return(nil, tt.serviceErr)
			} else {
				svc.On("Signup", mock.Anything, "alice", "s3cretpass").Return(&domain.User{ID: uuid.New(), Username: "alice"}, nil)
			}

			app := newTestApp()
			app.Post("/signup", NewAccountHandler(svc, testLogger()).Signup)

			resp, err := app.Test(jsonRequest(t, "POST", "/signup", CredentialsRequest{Username: "alice", Password: "s3cretpass"}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, decodeBody(t, resp))

			svc.AssertExpectations(t)
		})
	}
}

func TestAccountHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Login", mock.Anything, "alice", "s3cretpass").Return(&service.Session{
			Token: "signed.jwt.token",
			User:  &domain.User{ID: uuid.New(), Username: "alice"},
		}, nil)

		app := newTestApp()
		app.Post("/login", NewAccountHandler(svc, testLogger()).Login)

		resp, err := app.Test(jsonRequest(t, "POST", "/login", CredentialsRequest{Username: "alice", Password: "s3cretpass"}))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Login successful", body["message"])
		assert.Equal(t, "signed.jwt.token", body["token"])
		assert.Equal(t, "alice", body["username"])
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Login", mock.Anything, "alice", "wrong").Return(nil, domain.ErrInvalidCredentials)

		app := newTestApp()
		app.Post("/login", NewAccountHandler(svc, testLogger()).Login)

		resp, err := app.Test(jsonRequest(t, "POST", "/login", CredentialsRequest{Username: "alice", Password: "wrong"}))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, "Invalid username or password", decodeBody(t, resp)["error"])
	})
}
