package service

import (
	"context"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/validation"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// UserService manages profiles and favorites of the signed-in user.
type UserService struct {
	users     repository.UserRepository
	rooms     repository.RoomRepository
	favorites repository.FavoriteRepository
	validator *validation.Validator
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	RoomRepo     repository.RoomRepository
	FavoriteRepo repository.FavoriteRepository
	Validator    *validation.Validator
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:     deps.UserRepo,
		rooms:     deps.RoomRepo,
		favorites: deps.FavoriteRepo,
		validator: deps.Validator,
	}
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, actor Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile replaces the caller's profile.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, profile domain.UserProfile) (*domain.User, error) {
	if err := s.validator.Validate(profile); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	user.Profile = profile
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddFavorite bookmarks a published room. Adding twice is a no-op.
func (s *UserService) AddFavorite(ctx context.Context, actor Actor, roomID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if isNoRows(err) {
			return apperrors.NewNotFound("room", nil)
		}
		return err
	}
	if !room.Published() {
		return apperrors.NewNotFound("room", nil)
	}
	return s.favorites.Add(ctx, actor.UserID, roomID)
}

// RemoveFavorite drops a bookmark if present.
func (s *UserService) RemoveFavorite(ctx context.Context, actor Actor, roomID string) error {
	return s.favorites.Remove(ctx, actor.UserID, roomID)
}

// ListFavorites returns the caller's bookmarked published rooms.
func (s *UserService) ListFavorites(ctx context.Context, actor Actor) ([]domain.Room, error) {
	return s.favorites.ListRooms(ctx, actor.UserID)
}
