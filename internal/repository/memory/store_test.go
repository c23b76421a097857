package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/repository"
)

func seedRoom(t *testing.T, s *Store, capacity int) *domain.Room {
	t.Helper()
	room := &domain.Room{
		OwnerID:          "owner-1",
		Title:            "Sunny room",
		Description:      "near campus",
		MaxRoommates:     capacity,
		AvailableFrom:    time.Now(),
		PricePerMonth:    400,
		Status:           domain.RoomStatusAvailable,
		PaymentStatus:    domain.PaymentStatusPaid,
		PaymentSessionID: "cs_" + t.Name(),
		Location: domain.Location{
			Address:     "1 Main St",
			Coordinates: &domain.GeoPoint{Latitude: 13.7563, Longitude: 100.5018},
		},
		Amenities: domain.Amenities{Wifi: true},
	}
	require.NoError(t, s.Rooms().Create(context.Background(), room))
	return room
}

func pendingInquiry(roomID, studentID string) *domain.Inquiry {
	return &domain.Inquiry{
		RoomID:    roomID,
		StudentID: studentID,
		Status:    domain.InquiryStatusPending,
		Terms:     domain.InquiryTerms{RentSplit: "equal", DurationMonths: 6, MoveInDate: time.Now()},
	}
}

func TestCreateInquiryRejectsNonPending(t *testing.T) {
	s := NewStore()
	room := seedRoom(t, s, 2)
	inquiry := pendingInquiry(room.ID, "student-1")
	inquiry.Status = domain.InquiryStatusAccepted

	err := s.Inquiries().Create(context.Background(), inquiry)
	require.ErrorIs(t, err, repository.ErrInvalidInitialState)
}

func TestCreateInquiryUniquePerActiveStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, 2)

	first := pendingInquiry(room.ID, "student-1")
	require.NoError(t, s.Inquiries().Create(ctx, first))
	require.ErrorIs(t, s.Inquiries().Create(ctx, pendingInquiry(room.ID, "student-1")), repository.ErrDuplicateActiveInquiry)

	_, err := s.Inquiries().Transition(ctx, repository.StatusChange{
		InquiryID: first.ID, ActorID: "student-1",
		From: domain.InquiryStatusPending, To: domain.InquiryStatusWithdrawn,
	})
	require.NoError(t, err)
	require.NoError(t, s.Inquiries().Create(ctx, pendingInquiry(room.ID, "student-1")))
}

func TestListInquiriesNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, 3)

	clock := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var created []string
	for _, studentID := range []string{"student-a", "student-b", "student-c"} {
		inquiry := pendingInquiry(room.ID, studentID)
		require.NoError(t, s.Inquiries().Create(ctx, inquiry))
		created = append(created, inquiry.ID)
	}

	listed, err := s.Inquiries().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, created[2], listed[0].ID)
	require.Equal(t, created[1], listed[1].ID)
	require.Equal(t, created[0], listed[2].ID)
}

func TestTransitionCompareAndSwap(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, 2)
	inquiry := pendingInquiry(room.ID, "student-1")
	require.NoError(t, s.Inquiries().Create(ctx, inquiry))

	_, err := s.Inquiries().Transition(ctx, repository.StatusChange{
		InquiryID: inquiry.ID, From: domain.InquiryStatusAccepted, To: domain.InquiryStatusWithdrawn,
	})
	require.ErrorIs(t, err, repository.ErrStatusConflict)

	var conflict *repository.StatusConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, domain.InquiryStatusPending, conflict.Current)
}

func TestConcurrentAcceptsRespectCapacity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, 3)

	const students = 10
	ids := make([]string, students)
	for i := range ids {
		inquiry := pendingInquiry(room.ID, "student-"+string(rune('a'+i)))
		require.NoError(t, s.Inquiries().Create(ctx, inquiry))
		ids[i] = inquiry.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, full := 0, 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.Inquiries().Transition(ctx, repository.StatusChange{
				InquiryID: id, ActorID: "owner-1",
				From: domain.InquiryStatusPending, To: domain.InquiryStatusAccepted,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if err == repository.ErrRoomFull {
				full++
			}
		}(id)
	}
	wg.Wait()

	require.Equal(t, 3, accepted)
	require.Equal(t, students-3, full)

	stored, err := s.Rooms().GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, stored.CurrentRoommates, 3)
}

func TestAddMatchRequiresSameRoomAndPending(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	roomA := seedRoom(t, s, 2)
	roomB := seedRoom(t, s, 2)

	a := pendingInquiry(roomA.ID, "student-a")
	b := pendingInquiry(roomA.ID, "student-b")
	c := pendingInquiry(roomB.ID, "student-c")
	for _, inq := range []*domain.Inquiry{a, b, c} {
		require.NoError(t, s.Inquiries().Create(ctx, inq))
	}

	_, _, err := s.Inquiries().AddMatch(ctx, a.ID, c.ID)
	require.ErrorIs(t, err, repository.ErrMatchIneligible)

	_, _, err = s.Inquiries().AddMatch(ctx, a.ID, "missing")
	require.ErrorIs(t, err, pgx.ErrNoRows)

	first, second, err := s.Inquiries().AddMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"student-b"}, first.MatchedWith)
	require.Equal(t, []string{"student-a"}, second.MatchedWith)

	first, _, err = s.Inquiries().AddMatch(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"student-a"}, first.MatchedWith)
}

func TestListFiltersByDistanceAndAmenities(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	near := seedRoom(t, s, 2)

	far := seedRoom(t, s, 2)
	far.Location.Coordinates = &domain.GeoPoint{Latitude: 18.7883, Longitude: 98.9853}
	require.NoError(t, s.Rooms().Update(ctx, far))

	rooms, err := s.Rooms().List(ctx, repository.RoomFilter{
		Near:         &domain.GeoPoint{Latitude: 13.75, Longitude: 100.50},
		RadiusMeters: 10000,
		Amenities:    []string{"wifi"},
	})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, near.ID, rooms[0].ID)

	rooms, err = s.Rooms().List(ctx, repository.RoomFilter{Amenities: []string{"parking"}})
	require.NoError(t, err)
	require.Empty(t, rooms)
}

func TestUpdateRejectsCapacityBelowOccupancy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, 2)
	inquiry := pendingInquiry(room.ID, "student-1")
	require.NoError(t, s.Inquiries().Create(ctx, inquiry))
	_, err := s.Inquiries().Transition(ctx, repository.StatusChange{
		InquiryID: inquiry.ID, From: domain.InquiryStatusPending, To: domain.InquiryStatusAccepted,
	})
	require.NoError(t, err)

	room.MaxRoommates = 0
	require.ErrorIs(t, s.Rooms().Update(ctx, room), repository.ErrCapacityExceeded)
}
