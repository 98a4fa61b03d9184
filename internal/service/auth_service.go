package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"foodgram/internal/auth"
	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/validation"
)

const (
	bcryptCost        = 10
	minPasswordLength = 8
)

// SignupInput is the payload of a user registration.
type SignupInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// AuthService handles registration and token authentication.
type AuthService interface {
	Register(ctx context.Context, in SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	Logout(ctx context.Context, principal *Principal) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a new user with a hashed password.
func (s *authService) Register(ctx context.Context, in SignupInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	verr := errors.NewValidationError()
	if !validation.ValidUsername(in.Username) {
		verr.Add("username", "enter a valid username: letters, digits and @/./+/-/_ only, and not \"me\"")
	}
	if msg := passwordPolicy(in.Password, in.Username, in.Email); msg != "" {
		verr.Add("password", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, errors.AlreadyExists("a user with that email already exists")
	}
	exists, err = s.userRepo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, errors.AlreadyExists("a user with that username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, errors.ErrAlreadyExists) {
			return nil, errors.AlreadyExists("a user with that email or username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login checks credentials and issues an auth token.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return "", errors.ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Logout revokes the token the principal authenticated with.
func (s *authService) Logout(ctx context.Context, principal *Principal) error {
	if principal == nil || principal.Claims == nil {
		return errors.ErrAuthRequired
	}
	ttl := s.jwtService.Remaining(principal.Claims)
	if err := s.tokenStore.Revoke(ctx, principal.Claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate validates token, rejects revoked tokens and loads the user.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.New(errors.ErrAuthRequired, "invalid token")
	}

	// An unreachable revocation store fails open: signed, unexpired tokens
	// keep working while redis is down.
	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", claims.UserID).Msg("token revocation check failed, accepting token")
		revoked = false
	}
	if revoked {
		return nil, errors.New(errors.ErrAuthRequired, "invalid token")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return nil, errors.New(errors.ErrAuthRequired, "user not found")
		}
		return nil, err
	}
	return &Principal{User: user, Claims: claims}, nil
}

// passwordPolicy returns a message describing why password is rejected, or "".
func passwordPolicy(password, username, email string) string {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Sprintf("this password is too short, it must contain at least %d characters", minPasswordLength)
	case strings.Trim(password, "0123456789") == "":
		return "this password is entirely numeric"
	case username != "" && strings.EqualFold(password, username):
		return "the password is too similar to the username"
	case email != "" && strings.EqualFold(password, email):
		return "the password is too similar to the email"
	}
	return ""
}
