package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sukritx/roommatebase/internal/domain"
)

// FavoriteRepository stores rooms a user bookmarked.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, roomID string) error
	Remove(ctx context.Context, userID, roomID string) error
	// ListRooms returns the published rooms among the user's favorites.
	ListRooms(ctx context.Context, userID string) ([]domain.Room, error)
}

type favoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository returns a Postgres-backed implementation.
func NewFavoriteRepository(pool *pgxpool.Pool) FavoriteRepository {
	return &favoriteRepository{pool: pool}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, roomID string) error {
	const query = `
        INSERT INTO user_favorites (user_id, room_id) VALUES ($1, $2)
        ON CONFLICT (user_id, room_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, roomID)
	return err
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, roomID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_favorites WHERE user_id=$1 AND room_id=$2`, userID, roomID)
	return err
}

func (r *favoriteRepository) ListRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	query := `SELECT ` + prefixedRoomColumns("r") + `
        FROM user_favorites f JOIN rooms r ON r.id = f.room_id
        WHERE f.user_id=$1 AND r.payment_status='paid'
        ORDER BY f.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRooms(rows)
}
