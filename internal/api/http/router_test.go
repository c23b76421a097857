package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/api/http/handlers"
	"github.com/sukritx/roommatebase/internal/auth"
	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/observability"
	"github.com/sukritx/roommatebase/internal/payment"
	"github.com/sukritx/roommatebase/internal/persistence"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/repository/memory"
	"github.com/sukritx/roommatebase/internal/service"
	"github.com/sukritx/roommatebase/internal/storage"
	"github.com/sukritx/roommatebase/internal/validation"
)

const webhookSecret = "whsec_router"

// checkoutStub opens sessions locally and verifies events with the real Stripe code.
type checkoutStub struct {
	*payment.StripeGateway
	mu    sync.Mutex
	count int
}

func (g *checkoutStub) CreateCheckoutSession(context.Context, int64, string, string) (payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
	id := fmt.Sprintf("cs_router_%d", g.count)
	return payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func newTestApp(t *testing.T, rateLimit config.RateLimitConfig) *fiber.App {
	t.Helper()
	cfg := config.Config{
		App:       config.AppConfig{Name: "roommatebase-test", BodyLimitBytes: 1 << 20},
		Auth:      config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4},
		Payment:   config.PaymentConfig{ListingFeeCents: 3000, WebhookSecret: webhookSecret, Currency: "usd"},
		Storage:   config.StorageConfig{MaxImageBytes: 1 << 16, MaxImages: 5},
		Search:    config.SearchConfig{RadiusMeters: 10000, DefaultLimit: 20, MaxLimit: 100},
		RateLimit: rateLimit,
	}
	logger := zap.NewNop()
	store := memory.NewStore()
	gateway := &checkoutStub{StripeGateway: payment.NewStripeGateway(cfg.Payment, logger)}
	dispatcher := events.NewInMemoryDispatcher(logger)
	v := validation.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, store.Users(), tokens, v)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo: store.Users(), RoomRepo: store.Rooms(), FavoriteRepo: store.Favorites(), Validator: v,
	})
	roomService := service.NewRoomService(cfg, service.RoomDependencies{
		RoomRepo: store.Rooms(), Gateway: gateway, Assets: storage.NewMemoryStore("memory://test"),
		Dispatcher: dispatcher, Validator: v, Logger: logger,
	})
	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: store.Inquiries(), RoomRepo: store.Rooms(), Dispatcher: dispatcher, Validator: v,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		RoomRepo: store.Rooms(), Gateway: gateway, Ledger: repository.NewMemoryEventLedger(time.Hour),
		Dispatcher: dispatcher, Logger: logger,
	})

	app := NewApp(cfg.App)
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Rooms:          handlers.NewRoomsHandler(roomService, inquiryService),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users()),
		WriteLimiter:   RateLimit(cfg.RateLimit),
	})
	return app
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func register(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/auth/users/register", "", map[string]any{
		"name": "Test User", "email": email, "password": "correct-horse", "role": role,
	})
	require.Equal(t, http.StatusCreated, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Auth.Token)
	return data.Auth.Token
}

func signedWebhook(eventID, sessionID string) *http.Request {
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","type":"checkout.session.completed","data":{"object":{"id":%q,"object":"checkout.session"}}}`,
		eventID, sessionID))
	now := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.", now)))
	mac.Write(payload)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func roomBody(capacity int) map[string]any {
	return map[string]any{
		"title":           "Room near campus",
		"description":     "Quiet flat with a shared kitchen.",
		"max_roommates":   capacity,
		"available_from":  "2026-09-01T00:00:00Z",
		"price_per_month": 400,
		"location": map[string]any{
			"address":     "1 University Ave",
			"coordinates": map[string]any{"latitude": 13.75, "longitude": 100.5},
		},
		"amenities": map[string]any{"wifi": true},
	}
}

func TestHealthLive(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	status, env := call(t, app, http.MethodGet, "/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	status, _ = call(t, app, http.MethodGet, "/users/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	studentToken := register(t, app, "student@example.com", "student")
	status, env = call(t, app, http.MethodPost, "/rooms", studentToken, roomBody(2))
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = call(t, app, http.MethodGet, "/users/me", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	status, env := do(t, app, req)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "SIGNATURE_ERROR", env.Error.Code)
}

func TestUnknownRoutesAndIDs(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	status, env := call(t, app, http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = call(t, app, http.MethodGet, "/rooms/not-a-uuid", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestListingAndInquiryFlow(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	ownerToken := register(t, app, "owner@example.com", "owner")
	studentToken := register(t, app, "student@example.com", "student")

	status, env := call(t, app, http.MethodPost, "/rooms", ownerToken, roomBody(1))
	require.Equal(t, http.StatusCreated, status, env.Error)
	var created struct {
		Room struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"room"`
		Checkout struct {
			SessionID string `json:"session_id"`
		} `json:"checkout"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "pending", created.Room.PaymentStatus)
	roomID := created.Room.ID

	status, _ = call(t, app, http.MethodGet, "/rooms/"+roomID, "", nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, signedWebhook("evt_flow", created.Checkout.SessionID))
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/rooms/"+roomID, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodPost, "/inquiries", studentToken, map[string]any{
		"room_id": roomID,
		"message": "Hello, is the room still free?",
		"terms": map[string]any{
			"rent_split": "equal", "move_in_date": "2026-09-10T00:00:00Z", "duration_months": 6,
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var inquiry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inquiry))
	require.Equal(t, "pending", inquiry.Status)

	status, env = call(t, app, http.MethodPatch, "/inquiries/"+inquiry.ID+"/status", studentToken,
		map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = call(t, app, http.MethodPatch, "/inquiries/"+inquiry.ID+"/status", ownerToken,
		map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodGet, "/rooms/"+roomID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var room struct {
		CurrentRoommates []string `json:"current_roommates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &room))
	require.Len(t, room.CurrentRoommates, 1)

	status, env = call(t, app, http.MethodPost, "/inquiries/"+inquiry.ID+"/withdraw", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, env = call(t, app, http.MethodPost, "/inquiries/"+inquiry.ID+"/withdraw", studentToken, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	require.Equal(t, "withdrawn", env.Error.Details["current"])

	status, env = call(t, app, http.MethodGet, "/inquiries/"+inquiry.ID+"/history", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
}

func TestWriteRateLimit(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{RequestsPerMinute: 1, Burst: 1})

	status, _ := call(t, app, http.MethodPost, "/auth/users/login", "", map[string]any{
		"email": "a@example.com", "password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, status)

	status, env := call(t, app, http.MethodPost, "/auth/users/login", "", map[string]any{
		"email": "a@example.com", "password": "whatever",
	})
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "RATE_LIMITED", env.Error.Code)
}
