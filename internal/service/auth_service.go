package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sukritx/roommatebase/internal/auth"
	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/validation"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	validator  *validation.Validator
	bcryptCost int
}

// RegisterInput is the payload for new accounts.
type RegisterInput struct {
	Name     string              `json:"name" validate:"required,max=100"`
	Email    string              `json:"email" validate:"required,email"`
	Password string              `json:"password" validate:"required,min=8,max=72"`
	Role     domain.Role         `json:"role" validate:"required,oneof=student owner"`
	Profile  *domain.UserProfile `json:"profile"`
}

// LoginInput is the payload for sign in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager, v *validation.Validator) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   tokens,
		validator:  v,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if input.Profile != nil {
		user.Profile = *input.Profile
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewUnauthenticated(auth.ErrInvalidCredentials.Error())
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, apperrors.NewUnauthenticated(err.Error())
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
