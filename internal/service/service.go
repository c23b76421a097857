package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
