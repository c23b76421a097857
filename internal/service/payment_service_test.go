package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

func TestConfirmCheckoutRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	room, session, err := h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2), nil)
	require.NoError(t, err)

	payload := h.gateway.completedEvent("evt_1", session.ID)
	_, err = h.payments.ConfirmCheckout(ctx, payload, "forged")
	require.True(t, apperrors.HasCode(err, apperrors.CodeSignature))

	stored, err := h.store.Rooms().GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)

	// the rejected delivery must not burn the event id
	result, err := h.payments.ConfirmCheckout(ctx, payload, validSignature)
	require.NoError(t, err)
	require.True(t, result.Published)
}

func TestConfirmCheckoutIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	room, session, err := h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2), nil)
	require.NoError(t, err)
	payload := h.gateway.completedEvent("evt_1", session.ID)

	first, err := h.payments.ConfirmCheckout(ctx, payload, validSignature)
	require.NoError(t, err)
	require.True(t, first.Published)
	require.Equal(t, room.ID, first.RoomID)

	second, err := h.payments.ConfirmCheckout(ctx, payload, validSignature)
	require.NoError(t, err)
	require.False(t, second.Published)
	require.True(t, second.Ignored)

	published := 0
	for _, eventType := range h.eventTypes() {
		if eventType == events.EventRoomPublished {
			published++
		}
	}
	require.Equal(t, 1, published)

	visible, err := h.rooms.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, visible.PaymentStatus)
}

func TestConfirmCheckoutUnknownSession(t *testing.T) {
	h := newHarness(t)
	result, err := h.payments.ConfirmCheckout(context.Background(),
		h.gateway.completedEvent("evt_1", "cs_unknown"), validSignature)
	require.NoError(t, err)
	require.False(t, result.Published)
	require.Empty(t, result.RoomID)
}

func TestConfirmCheckoutIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)
	result, err := h.payments.ConfirmCheckout(context.Background(), []byte("evt_other"), validSignature)
	require.NoError(t, err)
	require.True(t, result.Ignored)
	require.Equal(t, "evt_other", result.EventID)
}
