package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/storage"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCreateRoomPendingUntilPaid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, session, err := h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2),
		[]storage.Upload{{Filename: "a.png", Data: pngHeader}})
	require.NoError(t, err)
	require.NotEmpty(t, session.URL)
	require.Equal(t, session.ID, room.PaymentSessionID)
	require.Equal(t, domain.PaymentStatusPending, room.PaymentStatus)
	require.Equal(t, domain.RoomStatusAvailable, room.Status)
	require.Len(t, room.Images, 1)
	require.Equal(t, 14, room.ContractTerms.AdvancePaymentDays)
	require.True(t, room.ContractTerms.SharedUtilities)
	require.Equal(t, 6, room.ContractTerms.MinLeaseDuration)

	_, err = h.rooms.GetRoom(ctx, room.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	found, err := h.rooms.QueryRooms(ctx, RoomQuery{})
	require.NoError(t, err)
	require.Empty(t, found)

	mine, err := h.rooms.ListOwnerRooms(ctx, owner("owner-1"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Contains(t, h.eventTypes(), events.EventRoomCreated)
}

func TestCreateRoomGatewayFailure(t *testing.T) {
	h := newHarness(t)
	h.gateway.fail = errors.New("stripe down")

	_, _, err := h.rooms.CreateRoom(context.Background(), owner("owner-1"), roomInput(2),
		[]storage.Upload{{Filename: "a.png", Data: pngHeader}})
	require.True(t, apperrors.HasCode(err, apperrors.CodePaymentGateway))
	require.Equal(t, 0, h.assets.Len())

	mine, err := h.rooms.ListOwnerRooms(context.Background(), owner("owner-1"))
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestCreateRoomValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.rooms.CreateRoom(ctx, student("student-a"), roomInput(2), nil)
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(0), nil)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	input := roomInput(2)
	input.AvailableFrom = nil
	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-1"), input, nil)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	tooMany := []storage.Upload{{Data: pngHeader}, {Data: pngHeader}, {Data: pngHeader}}
	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2), tooMany)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2), []storage.Upload{{Data: make([]byte, 2048)}})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-1"), roomInput(2),
		[]storage.Upload{{Data: pngHeader}, {Data: []byte("plain text, not an image")}})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.Equal(t, 0, h.assets.Len())
	require.Equal(t, 0, h.gateway.sessions)
}

func TestOwnershipHidesRooms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	room := h.publishedRoom(t, "owner-1", 2)

	_, err := h.rooms.MarkFilled(ctx, owner("owner-2"), room.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.rooms.UpdateRoom(ctx, owner("owner-2"), room.ID, roomInput(3))
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = h.rooms.DeleteRoom(ctx, owner("owner-2"), room.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	filled, err := h.rooms.MarkFilled(ctx, owner("owner-1"), room.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoomStatusFilled, filled.Status)
}

func TestUpdateRoomCapacityBelowOccupancy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	room := h.publishedRoom(t, "owner-1", 3)
	for _, id := range []string{"student-a", "student-b"} {
		inquiry := h.inquire(t, id, room.ID)
		_, err := h.inquiries.SetStatus(ctx, owner("owner-1"), inquiry.ID, acceptInput)
		require.NoError(t, err)
	}

	_, err := h.rooms.UpdateRoom(ctx, owner("owner-1"), room.ID, roomInput(1))
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	updated, err := h.rooms.UpdateRoom(ctx, owner("owner-1"), room.ID, roomInput(2))
	require.NoError(t, err)
	require.Equal(t, 2, updated.MaxRoommates)
	require.Len(t, h.roommates(t, room.ID), 2)
}

func TestDeleteRoomKeepsInquiries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	room := h.publishedRoom(t, "owner-1", 2)
	inquiry := h.inquire(t, "student-a", room.ID)

	require.NoError(t, h.rooms.DeleteRoom(ctx, owner("owner-1"), room.ID))

	_, err := h.rooms.GetRoom(ctx, room.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	mine, err := h.inquiries.ListForStudent(ctx, student("student-a"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, inquiry.ID, mine[0].ID)
}

func TestQueryRooms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	near := h.publishedRoom(t, "owner-1", 2)

	far := roomInput(4)
	far.PricePerMonth = 900
	far.Location.Coordinates = &CoordinatesInput{Latitude: 18.7883, Longitude: 98.9853}
	far.Amenities = domain.Amenities{Parking: true}
	farRoom, session, err := h.rooms.CreateRoom(ctx, owner("owner-2"), far, nil)
	require.NoError(t, err)
	_, err = h.payments.ConfirmCheckout(ctx, h.gateway.completedEvent("evt_far", session.ID), validSignature)
	require.NoError(t, err)

	_, _, err = h.rooms.CreateRoom(ctx, owner("owner-3"), roomInput(2), nil)
	require.NoError(t, err)

	all, err := h.rooms.QueryRooms(ctx, RoomQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	maxPrice := 500.0
	cheap, err := h.rooms.QueryRooms(ctx, RoomQuery{PriceMax: &maxPrice})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	require.Equal(t, near.ID, cheap[0].ID)

	withParking, err := h.rooms.QueryRooms(ctx, RoomQuery{Amenities: []string{"parking"}})
	require.NoError(t, err)
	require.Len(t, withParking, 1)
	require.Equal(t, farRoom.ID, withParking[0].ID)

	small := 2
	capped, err := h.rooms.QueryRooms(ctx, RoomQuery{MaxRoommates: &small})
	require.NoError(t, err)
	require.Len(t, capped, 1)

	nearby, err := h.rooms.QueryRooms(ctx, RoomQuery{Near: &domain.GeoPoint{Latitude: 13.76, Longitude: 100.50}})
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	require.Equal(t, near.ID, nearby[0].ID)

	_, err = h.rooms.QueryRooms(ctx, RoomQuery{Amenities: []string{"pool"}})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	minPrice := 600.0
	_, err = h.rooms.QueryRooms(ctx, RoomQuery{PriceMin: &minPrice, PriceMax: &maxPrice})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.rooms.MarkFilled(ctx, owner("owner-1"), near.ID)
	require.NoError(t, err)
	filled := domain.RoomStatusFilled
	filledRooms, err := h.rooms.QueryRooms(ctx, RoomQuery{Status: &filled})
	require.NoError(t, err)
	require.Len(t, filledRooms, 1)
}
