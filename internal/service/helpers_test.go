package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/payment"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/repository/memory"
	"github.com/sukritx/roommatebase/internal/storage"
	"github.com/sukritx/roommatebase/internal/validation"
)

const validSignature = "valid-signature"

type fakeGateway struct {
	mu       sync.Mutex
	fail     error
	sessions int
	events   map[string]payment.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(map[string]payment.Event)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, amountCents int64, _, _ string) (payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return payment.CheckoutSession{}, g.fail
	}
	if amountCents <= 0 {
		return payment.CheckoutSession{}, errors.New("amount must be positive")
	}
	g.sessions++
	id := fmt.Sprintf("cs_test_%d", g.sessions)
	return payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

// completedEvent registers a payload the fake will accept with validSignature.
func (g *fakeGateway) completedEvent(eventID, sessionID string) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	payload := []byte(eventID)
	g.events[eventID] = payment.Event{ID: eventID, Type: payment.EventCheckoutCompleted, SessionID: sessionID}
	return payload
}

func (g *fakeGateway) VerifyAndParseEvent(payload []byte, signature string) (payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if signature != validSignature {
		return payment.Event{}, fmt.Errorf("%w: bad header", payment.ErrSignature)
	}
	event, ok := g.events[string(payload)]
	if !ok {
		return payment.Event{ID: string(payload), Type: "customer.created"}, nil
	}
	return event, nil
}

type harness struct {
	store     *memory.Store
	gateway   *fakeGateway
	assets    *storage.MemoryStore
	rooms     *RoomService
	inquiries *InquiryService
	payments  *PaymentService
	users     *UserService
	published []events.Event
	mu        sync.Mutex

	inquiryDeps InquiryDependencies
}

func testConfig() config.Config {
	return config.Config{
		Payment: config.PaymentConfig{
			ListingFeeCents: 3000,
			SuccessURL:      "http://localhost/success",
			CancelURL:       "http://localhost/cancel",
		},
		Storage: config.StorageConfig{MaxImageBytes: 1024, MaxImages: 2},
		Search:  config.SearchConfig{RadiusMeters: 10000, DefaultLimit: 20, MaxLimit: 100},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   memory.NewStore(),
		gateway: newFakeGateway(),
		assets:  storage.NewMemoryStore("http://assets.test"),
	}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.published = append(h.published, e)
			return nil
		})
	}
	v := validation.New()

	h.rooms = NewRoomService(testConfig(), RoomDependencies{
		RoomRepo:   h.store.Rooms(),
		Gateway:    h.gateway,
		Assets:     h.assets,
		Dispatcher: dispatcher,
		Validator:  v,
	})
	h.inquiryDeps = InquiryDependencies{
		InquiryRepo: h.store.Inquiries(),
		RoomRepo:    h.store.Rooms(),
		Dispatcher:  dispatcher,
		Validator:   v,
	}
	h.inquiries = NewInquiryService(h.inquiryDeps)
	h.payments = NewPaymentService(PaymentDependencies{
		RoomRepo:   h.store.Rooms(),
		Gateway:    h.gateway,
		Ledger:     repository.NewMemoryEventLedger(time.Hour),
		Dispatcher: dispatcher,
	})
	h.users = NewUserService(UserDependencies{
		UserRepo:     h.store.Users(),
		RoomRepo:     h.store.Rooms(),
		FavoriteRepo: h.store.Favorites(),
		Validator:    v,
	})
	return h
}

func (h *harness) eventTypes() []events.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]events.EventType, len(h.published))
	for i, e := range h.published {
		out[i] = e.Type
	}
	return out
}

func owner(id string) Actor   { return Actor{UserID: id, Role: domain.RoleOwner} }
func student(id string) Actor { return Actor{UserID: id, Role: domain.RoleStudent} }

func roomInput(capacity int) RoomInput {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return RoomInput{
		Title:         "Bright room near campus",
		Description:   "Two bedroom flat, shared kitchen.",
		MaxRoommates:  capacity,
		AvailableFrom: &from,
		PricePerMonth: 450,
		Location: LocationInput{
			Address:     "12 College Rd",
			Coordinates: &CoordinatesInput{Latitude: 13.7563, Longitude: 100.5018},
		},
		Amenities: domain.Amenities{Wifi: true, Fridge: true},
	}
}

// publishedRoom creates a room for ownerID and confirms its payment.
func (h *harness) publishedRoom(t *testing.T, ownerID string, capacity int) *domain.Room {
	t.Helper()
	ctx := context.Background()
	room, session, err := h.rooms.CreateRoom(ctx, owner(ownerID), roomInput(capacity), nil)
	require.NoError(t, err)

	payload := h.gateway.completedEvent("evt_"+session.ID, session.ID)
	result, err := h.payments.ConfirmCheckout(ctx, payload, validSignature)
	require.NoError(t, err)
	require.True(t, result.Published)

	stored, err := h.store.Rooms().GetByID(ctx, room.ID)
	require.NoError(t, err)
	return stored
}

func inquiryInput(roomID string) InquiryInput {
	moveIn := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return InquiryInput{
		RoomID:  roomID,
		Message: "Hi, I'm a second year student looking for a quiet place.",
		Terms: TermsInput{
			RentSplit:      "equal",
			MoveInDate:     &moveIn,
			DurationMonths: 6,
			Preferences:    PreferencesInput{Quiet: true, Visitors: "occasional"},
		},
	}
}

func (h *harness) inquire(t *testing.T, studentID, roomID string) *domain.Inquiry {
	t.Helper()
	inquiry, err := h.inquiries.CreateInquiry(context.Background(), student(studentID), inquiryInput(roomID))
	require.NoError(t, err)
	return inquiry
}

func (h *harness) roommates(t *testing.T, roomID string) []string {
	t.Helper()
	room, err := h.store.Rooms().GetByID(context.Background(), roomID)
	require.NoError(t, err)
	return room.CurrentRoommates
}
