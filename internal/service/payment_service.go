package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/payment"
	"github.com/sukritx/roommatebase/internal/repository"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// PaymentService confirms listing fee payments reported by the provider.
type PaymentService struct {
	rooms      repository.RoomRepository
	gateway    payment.Gateway
	ledger     repository.EventLedger
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	RoomRepo   repository.RoomRepository
	Gateway    payment.Gateway
	Ledger     repository.EventLedger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ConfirmResult reports what a delivered event did.
type ConfirmResult struct {
	EventID   string `json:"event_id"`
	RoomID    string `json:"room_id,omitempty"`
	Published bool   `json:"published"`
	Ignored   bool   `json:"ignored"`
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		rooms:      deps.RoomRepo,
		gateway:    deps.Gateway,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ConfirmCheckout verifies a raw provider event and publishes the room it
// pays for. The signature is checked before any state is read. Replays,
// unrelated event types and unknown sessions succeed without changes.
func (s *PaymentService) ConfirmCheckout(ctx context.Context, payload []byte, signature string) (*ConfirmResult, error) {
	event, err := s.gateway.VerifyAndParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrSignature) {
			return nil, apperrors.NewSignatureError(err)
		}
		return nil, apperrors.NewValidationError("malformed payment event", nil)
	}

	result := &ConfirmResult{EventID: event.ID}
	if event.Type != payment.EventCheckoutCompleted || event.SessionID == "" {
		result.Ignored = true
		return result, nil
	}

	if s.ledger != nil && event.ID != "" {
		claimed, err := s.ledger.Claim(ctx, event.ID)
		switch {
		case err != nil:
			s.logger.Warn("payment event ledger unavailable", zap.String("event_id", event.ID), zap.Error(err))
		case !claimed:
			s.logger.Info("payment event replayed", zap.String("event_id", event.ID))
			result.Ignored = true
			return result, nil
		}
	}

	roomID, updated, err := s.rooms.MarkPaidBySession(ctx, event.SessionID)
	if err != nil {
		s.release(ctx, event.ID)
		return nil, err
	}
	if !updated {
		s.logger.Info("payment event matched no unpaid room",
			zap.String("event_id", event.ID), zap.String("session_id", event.SessionID))
		return result, nil
	}

	result.RoomID = roomID
	result.Published = true
	publishEvent(ctx, s.dispatcher, events.New(events.EventRoomPublished, roomID, "", "",
		events.RoomPublishedPayload{PaymentEventID: event.ID}))
	return result, nil
}

func (s *PaymentService) release(ctx context.Context, eventID string) {
	if s.ledger == nil || eventID == "" {
		return
	}
	if err := s.ledger.Release(ctx, eventID); err != nil {
		s.logger.Warn("failed to release payment event claim", zap.String("event_id", eventID), zap.Error(err))
	}
}
