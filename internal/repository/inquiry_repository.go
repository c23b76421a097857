package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sukritx/roommatebase/internal/domain"
)

// StatusChange is a compare-and-swap request on an inquiry status.
type StatusChange struct {
	InquiryID string
	ActorID   string
	From      domain.InquiryStatus
	To        domain.InquiryStatus
}

// InquiryRepository encapsulates inquiry persistence. Status changes that
// touch room occupancy are applied together with the room in one unit.
type InquiryRepository interface {
	// Create stores a pending inquiry on an available room and records the creation transition.
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Inquiry, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Inquiry, error)
	// Transition moves an inquiry from change.From to change.To. Accepting
	// adds the student to the room only if a slot is free; leaving accepted
	// removes them.
	Transition(ctx context.Context, change StatusChange) (*domain.Inquiry, error)
	ListTransitions(ctx context.Context, inquiryID string) ([]domain.InquiryTransition, error)
	// AddMatch links the students of two pending inquiries on the same room.
	AddMatch(ctx context.Context, inquiryID, otherID string) (*domain.Inquiry, *domain.Inquiry, error)
}

type inquiryRepository struct {
	pool *pgxpool.Pool
}

// NewInquiryRepository builds repository.
func NewInquiryRepository(pool *pgxpool.Pool) InquiryRepository {
	return &inquiryRepository{pool: pool}
}

const inquiryColumns = `id, room_id, student_id, terms, status, matched_with, message, created_at, updated_at`

func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	if inquiry.Status != domain.InquiryStatusPending {
		return ErrInvalidInitialState
	}
	if inquiry.MatchedWith == nil {
		inquiry.MatchedWith = []string{}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status domain.RoomStatus
		var payment domain.PaymentStatus
		err := tx.QueryRow(ctx,
			`SELECT status, payment_status FROM rooms WHERE id=$1 FOR SHARE`,
			inquiry.RoomID,
		).Scan(&status, &payment)
		if err != nil {
			return err
		}
		if status != domain.RoomStatusAvailable || payment != domain.PaymentStatusPaid {
			return ErrRoomUnavailable
		}

		const insert = `
            INSERT INTO inquiries (room_id, student_id, terms, status, matched_with, message)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insert,
			inquiry.RoomID,
			inquiry.StudentID,
			inquiry.Terms,
			inquiry.Status,
			inquiry.MatchedWith,
			inquiry.Message,
		).Scan(&inquiry.ID, &inquiry.CreatedAt, &inquiry.UpdatedAt); err != nil {
			return mapConstraintErr(err)
		}

		return insertTransition(ctx, tx, inquiry.ID, inquiry.StudentID, nil, inquiry.Status)
	})
}

func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE id=$1`
	return scanInquiry(r.pool.QueryRow(ctx, query, id))
}

func (r *inquiryRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE room_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, roomID)
}

func (r *inquiryRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Inquiry, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE student_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *inquiryRepository) list(ctx context.Context, query string, arg any) ([]domain.Inquiry, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Inquiry{}
	for rows.Next() {
		var inquiry domain.Inquiry
		if err := rows.Scan(inquiryScanTargets(&inquiry)...); err != nil {
			return nil, err
		}
		result = append(result, inquiry)
	}
	return result, rows.Err()
}

func (r *inquiryRepository) Transition(ctx context.Context, change StatusChange) (*domain.Inquiry, error) {
	var updated *domain.Inquiry
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanInquiry(tx.QueryRow(ctx,
			`SELECT `+inquiryColumns+` FROM inquiries WHERE id=$1 FOR UPDATE`, change.InquiryID))
		if err != nil {
			return err
		}
		if current.Status != change.From {
			return &StatusConflictError{Current: current.Status}
		}

		switch {
		case change.To == domain.InquiryStatusAccepted:
			if err := claimRoomSlot(ctx, tx, current.RoomID, current.StudentID); err != nil {
				return err
			}
		case change.From == domain.InquiryStatusAccepted:
			const release = `
                UPDATE rooms SET current_roommates = array_remove(current_roommates, $2), updated_at=NOW()
                WHERE id=$1`
			if _, err := tx.Exec(ctx, release, current.RoomID, current.StudentID); err != nil {
				return err
			}
		}

		updated, err = scanInquiry(tx.QueryRow(ctx, `
            UPDATE inquiries SET status=$1, updated_at=NOW()
            WHERE id=$2 AND status=$3
            RETURNING `+inquiryColumns, change.To, change.InquiryID, change.From))
		if err != nil {
			return err
		}

		from := change.From
		return insertTransition(ctx, tx, change.InquiryID, change.ActorID, &from, change.To)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// claimRoomSlot adds studentID to the room in a single conditional write.
// Re-adding a present member is a no-op.
func claimRoomSlot(ctx context.Context, tx pgx.Tx, roomID, studentID string) error {
	const claim = `
        UPDATE rooms SET
            current_roommates = CASE WHEN $2 = ANY(current_roommates) THEN current_roommates
                                     ELSE array_append(current_roommates, $2) END,
            updated_at = NOW()
        WHERE id=$1 AND ($2 = ANY(current_roommates) OR cardinality(current_roommates) < max_roommates)`
	cmd, err := tx.Exec(ctx, claim, roomID, studentID)
	if err != nil {
		return mapConstraintErr(err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id=$1)`, roomID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrRoomFull
}

func (r *inquiryRepository) ListTransitions(ctx context.Context, inquiryID string) ([]domain.InquiryTransition, error) {
	const query = `
        SELECT id, inquiry_id, actor_id, from_status, to_status, created_at
        FROM inquiry_transitions WHERE inquiry_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, inquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.InquiryTransition{}
	for rows.Next() {
		var t domain.InquiryTransition
		if err := rows.Scan(&t.ID, &t.InquiryID, &t.ActorID, &t.From, &t.To, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *inquiryRepository) AddMatch(ctx context.Context, inquiryID, otherID string) (*domain.Inquiry, *domain.Inquiry, error) {
	if inquiryID == otherID {
		return nil, nil, ErrMatchIneligible
	}

	var first, second *domain.Inquiry
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock both rows in id order so opposite proposals cannot deadlock.
		rows, err := tx.Query(ctx,
			`SELECT `+inquiryColumns+` FROM inquiries WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`,
			[]string{inquiryID, otherID})
		if err != nil {
			return err
		}
		locked := map[string]*domain.Inquiry{}
		for rows.Next() {
			var inquiry domain.Inquiry
			if err := rows.Scan(inquiryScanTargets(&inquiry)...); err != nil {
				rows.Close()
				return err
			}
			locked[inquiry.ID] = &inquiry
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		a, b := locked[inquiryID], locked[otherID]
		if a == nil || b == nil {
			return pgx.ErrNoRows
		}
		if a.RoomID != b.RoomID || a.Status != domain.InquiryStatusPending || b.Status != domain.InquiryStatusPending {
			return ErrMatchIneligible
		}

		const link = `
            UPDATE inquiries SET
                matched_with = CASE WHEN $2 = ANY(matched_with) THEN matched_with
                                    ELSE array_append(matched_with, $2) END,
                updated_at = NOW()
            WHERE id=$1
            RETURNING ` + inquiryColumns
		if first, err = scanInquiry(tx.QueryRow(ctx, link, a.ID, b.StudentID)); err != nil {
			return err
		}
		second, err = scanInquiry(tx.QueryRow(ctx, link, b.ID, a.StudentID))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func insertTransition(ctx context.Context, tx pgx.Tx, inquiryID, actorID string, from *domain.InquiryStatus, to domain.InquiryStatus) error {
	const query = `
        INSERT INTO inquiry_transitions (inquiry_id, actor_id, from_status, to_status)
        VALUES ($1,$2,$3,$4)`
	_, err := tx.Exec(ctx, query, inquiryID, actorID, from, to)
	return err
}

func scanInquiry(row pgx.Row) (*domain.Inquiry, error) {
	var inquiry domain.Inquiry
	if err := row.Scan(inquiryScanTargets(&inquiry)...); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

func inquiryScanTargets(inquiry *domain.Inquiry) []any {
	return []any{
		&inquiry.ID,
		&inquiry.RoomID,
		&inquiry.StudentID,
		&inquiry.Terms,
		&inquiry.Status,
		&inquiry.MatchedWith,
		&inquiry.Message,
		&inquiry.CreatedAt,
		&inquiry.UpdatedAt,
	}
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
