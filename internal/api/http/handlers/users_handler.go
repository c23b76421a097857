package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sukritx/roommatebase/internal/api/dto"
	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/service"
)

// UsersHandler exposes account, profile and favorites endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Profile:  req.Profile,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.users.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateProfile handles PUT /users/me/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var profile domain.UserProfile
	if err := parseBody(c, &profile); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), actor, profile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListFavorites handles GET /users/me/favorites.
func (h *UsersHandler) ListFavorites(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rooms, err := h.users.ListFavorites(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomList(rooms)})
}

// AddFavorite handles POST /users/me/favorites/:roomId.
func (h *UsersHandler) AddFavorite(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	roomID, err := pathID(c, "roomId", "room")
	if err != nil {
		return err
	}
	if err := h.users.AddFavorite(c.UserContext(), actor, roomID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /users/me/favorites/:roomId.
func (h *UsersHandler) RemoveFavorite(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	roomID, err := pathID(c, "roomId", "room")
	if err != nil {
		return err
	}
	if err := h.users.RemoveFavorite(c.UserContext(), actor, roomID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionResponse(session *service.Session) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(session.User),
		"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	}
}
