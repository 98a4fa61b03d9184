package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"foodgram/internal/auth"
	"foodgram/internal/errors"
	"foodgram/internal/model"
)

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         SignupInput
		setupMock     func(*MockUserRepository)
		expectedError error
		fields        []string
	}{
		{
			name:  "successful registration",
			input: SignupInput{Email: "test@example.com", Username: "tester", FirstName: "Test", LastName: "User", Password: "s3cret-pass"},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByEmail", mock.Anything, "test@example.com").Return(false, nil)
				m.On("ExistsByUsername", mock.Anything, "tester").Return(false, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "email already exists",
			input: SignupInput{Email: "existing@example.com", Username: "tester", Password: "s3cret-pass"},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByEmail", mock.Anything, "existing@example.com").Return(true, nil)
			},
			expectedError: errors.ErrAlreadyExists,
		},
		{
			name:  "username already exists",
			input: SignupInput{Email: "new@example.com", Username: "taken", Password: "s3cret-pass"},
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
				m.On("ExistsByUsername", mock.Anything, "taken").Return(true, nil)
			},
			expectedError: errors.ErrAlreadyExists,
		},
		{
			name:          "reserved username and numeric password",
			input:         SignupInput{Email: "me@example.com", Username: "me", Password: "12345678"},
			setupMock:     func(m *MockUserRepository) {},
			expectedError: errors.ErrValidation,
			fields:        []string{"username", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewAuthService(mockRepo, auth.NewJWTService("test-secret", time.Hour), new(MockTokenStore))
			user, err := service.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				for _, f := range tt.fields {
					assert.Contains(t, errors.MapErrorToHTTP(err).Fields, f)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	user := &model.User{ID: 4, Email: "test@example.com", Username: "tester", PasswordHash: string(hashedPassword)}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "nope",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
			},
			expectedError: errors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, errors.NotFound("user"))
			},
			expectedError: errors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret", time.Hour)
			service := NewAuthService(mockRepo, jwtService, new(MockTokenStore))

			token, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				claims, err := jwtService.ValidateToken(token)
				require.NoError(t, err)
				assert.Equal(t, uint(4), claims.UserID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: 4, Username: "tester"}
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	token, err := jwtService.GenerateToken(user.ID, user.Username)
	require.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, uint(4)).Return(user, nil)
	tokens := new(MockTokenStore)
	tokens.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	service := NewAuthService(mockRepo, jwtService, tokens)
	principal, err := service.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Same(t, user, principal.User)

	tokens.On("Revoke", mock.Anything, principal.Claims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
	require.NoError(t, service.Logout(ctx, principal))

	tokens.On("IsRevoked", mock.Anything, principal.Claims.ID).Return(true, nil)
	_, err = service.Authenticate(ctx, token)
	assert.ErrorIs(t, err, errors.ErrAuthRequired)

	_, err = service.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, errors.ErrAuthRequired)

	assert.ErrorIs(t, service.Logout(ctx, nil), errors.ErrAuthRequired)
	tokens.AssertExpectations(t)
}

func TestAuthService_RevocationStoreOutage(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: 4, Username: "tester"}
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	token, err := jwtService.GenerateToken(user.ID, user.Username)
	require.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, uint(4)).Return(user, nil)
	tokens := new(MockTokenStore)
	outage := stderrors.New("dial tcp: connection refused")
	tokens.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, outage)
	tokens.On("Revoke", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).Return(outage)

	service := NewAuthService(mockRepo, jwtService, tokens)

	principal, err := service.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Same(t, user, principal.User)

	err = service.Logout(ctx, principal)
	assert.ErrorIs(t, err, outage)
	assert.Equal(t, http.StatusInternalServerError, errors.MapErrorToHTTP(err).StatusCode)
	tokens.AssertExpectations(t)
}
