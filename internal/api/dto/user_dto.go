package dto

import (
	"time"

	"github.com/sukritx/roommatebase/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     domain.Role         `json:"role"`
	Profile  *domain.UserProfile `json:"profile"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      domain.Role        `json:"role"`
	Profile   domain.UserProfile `json:"profile"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewUserResponse maps a user without its password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}
