package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/observability"
)

// ActivityService records domain events in the log and in metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every event type.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *ActivityService) record(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("room_id", event.RoomID),
	}
	if event.InquiryID != "" {
		fields = append(fields, zap.String("inquiry_id", event.InquiryID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}
