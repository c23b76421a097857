package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sukritx/roommatebase/internal/domain"
)

var (
	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRoomFull means the room had no free slot at the moment of the write.
	ErrRoomFull = errors.New("room is full")
	// ErrCapacityExceeded means the store-level capacity check rejected a write.
	ErrCapacityExceeded = errors.New("room capacity exceeded")
	// ErrRoomUnavailable means the room is not accepting inquiries.
	ErrRoomUnavailable = errors.New("room unavailable")
	// ErrDuplicateActiveInquiry means the student already has a pending or accepted inquiry on the room.
	ErrDuplicateActiveInquiry = errors.New("duplicate active inquiry")
	// ErrInvalidInitialState is returned when an inquiry is not created as pending.
	ErrInvalidInitialState = errors.New("inquiry must start pending")
	// ErrStatusConflict is returned when the stored status differs from the expected one.
	ErrStatusConflict = errors.New("inquiry status changed concurrently")
	// ErrMatchIneligible means the pair is not two pending inquiries on one room.
	ErrMatchIneligible = errors.New("inquiries cannot be matched")
)

// StatusConflictError carries the status found in the store.
type StatusConflictError struct {
	Current domain.InquiryStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("%s: current status %s", ErrStatusConflict, e.Current)
}

func (e *StatusConflictError) Is(target error) bool {
	return target == ErrStatusConflict
}

const (
	constraintActiveInquiry = "inquiries_active_student_room_idx"
	constraintRoomCapacity  = "rooms_capacity_check"
	constraintUserEmail     = "users_email_lower_idx"
)

// mapConstraintErr translates Postgres constraint violations into repository sentinels.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case constraintActiveInquiry:
			return ErrDuplicateActiveInquiry
		case constraintUserEmail:
			return ErrEmailTaken
		}
	case pgerrcode.CheckViolation:
		if pgErr.ConstraintName == constraintRoomCapacity {
			return ErrCapacityExceeded
		}
	}
	return err
}
