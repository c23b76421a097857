package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sukritx/roommatebase/internal/domain"
)

// RoomFilter captures public search parameters.
type RoomFilter struct {
	OwnerID       *string
	PriceMin      *float64
	PriceMax      *float64
	MaxRoommates  *int
	Amenities     []string
	Near          *domain.GeoPoint
	RadiusMeters  float64
	Status        *domain.RoomStatus
	PaymentStatus *domain.PaymentStatus
	Limit         int
	Offset        int
}

// RoomRepository encapsulates room persistence.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	// Update rewrites listing details of a room owned by room.OwnerID.
	Update(ctx context.Context, room *domain.Room) error
	SetStatus(ctx context.Context, id, ownerID string, status domain.RoomStatus) (*domain.Room, error)
	Delete(ctx context.Context, id, ownerID string) error
	List(ctx context.Context, filter RoomFilter) ([]domain.Room, error)
	// MarkPaidBySession flips the room holding sessionID to paid. It reports
	// whether a row changed; unknown or already paid sessions return false.
	MarkPaidBySession(ctx context.Context, sessionID string) (string, bool, error)
}

type roomRepository struct {
	pool *pgxpool.Pool
}

// NewRoomRepository instantiates repository.
func NewRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &roomRepository{pool: pool}
}

var roomColumnNames = []string{
	"id", "owner_id", "title", "description", "max_roommates", "available_from",
	"price_per_month", "listing_fee_cents", "location", "images", "contract_terms",
	"amenities", "status", "payment_status", "payment_session_id", "current_roommates",
	"created_at", "updated_at",
}

var roomColumns = strings.Join(roomColumnNames, ", ")

func prefixedRoomColumns(alias string) string {
	cols := make([]string, len(roomColumnNames))
	for i, c := range roomColumnNames {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	const query = `
        INSERT INTO rooms (owner_id, title, description, max_roommates, available_from, price_per_month,
            listing_fee_cents, location, images, contract_terms, amenities, status, payment_status,
            payment_session_id, current_roommates)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	if room.CurrentRoommates == nil {
		room.CurrentRoommates = []string{}
	}
	if room.Images == nil {
		room.Images = []domain.Image{}
	}
	err := r.pool.QueryRow(ctx, query,
		room.OwnerID,
		room.Title,
		room.Description,
		room.MaxRoommates,
		room.AvailableFrom,
		room.PricePerMonth,
		room.ListingFeeCents,
		room.Location,
		room.Images,
		room.ContractTerms,
		room.Amenities,
		room.Status,
		room.PaymentStatus,
		room.PaymentSessionID,
		room.CurrentRoommates,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	return mapConstraintErr(err)
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id=$1`
	return scanRoom(r.pool.QueryRow(ctx, query, id))
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	query := `
        UPDATE rooms SET title=$1, description=$2, max_roommates=$3, available_from=$4, price_per_month=$5,
            location=$6, images=$7, contract_terms=$8, amenities=$9, updated_at=NOW()
        WHERE id=$10 AND owner_id=$11
        RETURNING ` + roomColumns
	updated, err := scanRoom(r.pool.QueryRow(ctx, query,
		room.Title,
		room.Description,
		room.MaxRoommates,
		room.AvailableFrom,
		room.PricePerMonth,
		room.Location,
		room.Images,
		room.ContractTerms,
		room.Amenities,
		room.ID,
		room.OwnerID,
	))
	if err != nil {
		return mapConstraintErr(err)
	}
	*room = *updated
	return nil
}

func (r *roomRepository) SetStatus(ctx context.Context, id, ownerID string, status domain.RoomStatus) (*domain.Room, error) {
	query := `
        UPDATE rooms SET status=$1, updated_at=NOW()
        WHERE id=$2 AND owner_id=$3
        RETURNING ` + roomColumns
	return scanRoom(r.pool.QueryRow(ctx, query, status, id, ownerID))
}

func (r *roomRepository) Delete(ctx context.Context, id, ownerID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roomRepository) MarkPaidBySession(ctx context.Context, sessionID string) (string, bool, error) {
	const query = `
        UPDATE rooms SET payment_status='paid', updated_at=NOW()
        WHERE payment_session_id=$1 AND payment_status<>'paid'
        RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, sessionID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// distanceExpr is the haversine distance in meters between the stored coordinates and ($lat, $lng).
const distanceExpr = `(6371000 * 2 * ASIN(SQRT(
        POWER(SIN(RADIANS(((location->'coordinates'->>'latitude')::float8 - %[1]s) / 2)), 2) +
        COS(RADIANS(%[1]s)) * COS(RADIANS((location->'coordinates'->>'latitude')::float8)) *
        POWER(SIN(RADIANS(((location->'coordinates'->>'longitude')::float8 - %[2]s) / 2)), 2))))`

func (r *roomRepository) List(ctx context.Context, filter RoomFilter) ([]domain.Room, error) {
	base := `SELECT ` + roomColumns + ` FROM rooms`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		clauses = append(clauses, fmt.Sprintf("payment_status=$%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		clauses = append(clauses, fmt.Sprintf("price_per_month >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		clauses = append(clauses, fmt.Sprintf("price_per_month <= $%d", len(args)))
	}
	if filter.MaxRoommates != nil {
		args = append(args, *filter.MaxRoommates)
		clauses = append(clauses, fmt.Sprintf("max_roommates <= $%d", len(args)))
	}
	if len(filter.Amenities) > 0 {
		wanted := make(map[string]bool, len(filter.Amenities))
		for _, a := range filter.Amenities {
			wanted[a] = true
		}
		raw, err := json.Marshal(wanted)
		if err != nil {
			return nil, err
		}
		args = append(args, string(raw))
		clauses = append(clauses, fmt.Sprintf("amenities @> $%d::jsonb", len(args)))
	}
	if filter.Near != nil && filter.RadiusMeters > 0 {
		args = append(args, filter.Near.Latitude)
		lat := fmt.Sprintf("$%d", len(args))
		args = append(args, filter.Near.Longitude)
		lng := fmt.Sprintf("$%d", len(args))
		args = append(args, filter.RadiusMeters)
		clauses = append(clauses,
			"location ? 'coordinates'",
			fmt.Sprintf(distanceExpr+" <= $%d", lat, lng, len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRooms(rows)
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var room domain.Room
	if err := row.Scan(roomScanTargets(&room)...); err != nil {
		return nil, err
	}
	return &room, nil
}

func scanRooms(rows pgx.Rows) ([]domain.Room, error) {
	result := []domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(roomScanTargets(&room)...); err != nil {
			return nil, err
		}
		result = append(result, room)
	}
	return result, rows.Err()
}

func roomScanTargets(room *domain.Room) []any {
	return []any{
		&room.ID,
		&room.OwnerID,
		&room.Title,
		&room.Description,
		&room.MaxRoommates,
		&room.AvailableFrom,
		&room.PricePerMonth,
		&room.ListingFeeCents,
		&room.Location,
		&room.Images,
		&room.ContractTerms,
		&room.Amenities,
		&room.Status,
		&room.PaymentStatus,
		&room.PaymentSessionID,
		&room.CurrentRoommates,
		&room.CreatedAt,
		&room.UpdatedAt,
	}
}
