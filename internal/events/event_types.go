package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/sukritx/roommatebase/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRoomCreated          EventType = "room_created"
	EventRoomPublished        EventType = "room_published"
	EventRoomFilled           EventType = "room_filled"
	EventRoomDeleted          EventType = "room_deleted"
	EventInquiryCreated       EventType = "inquiry_created"
	EventInquiryStatusChanged EventType = "inquiry_status_changed"
	EventInquiryMatched       EventType = "inquiry_matched"
)

// AllEventTypes lists every type a subscriber may register for.
var AllEventTypes = []EventType{
	EventRoomCreated,
	EventRoomPublished,
	EventRoomFilled,
	EventRoomDeleted,
	EventInquiryCreated,
	EventInquiryStatusChanged,
	EventInquiryMatched,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RoomID    string      `json:"room_id"`
	InquiryID string      `json:"inquiry_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with an ID and the current time.
func New(eventType EventType, roomID, inquiryID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RoomID:    roomID,
		InquiryID: inquiryID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// RoomCreatedPayload payload.
type RoomCreatedPayload struct {
	Title            string `json:"title"`
	MaxRoommates     int    `json:"max_roommates"`
	PaymentSessionID string `json:"payment_session_id"`
}

// RoomPublishedPayload payload.
type RoomPublishedPayload struct {
	PaymentEventID string `json:"payment_event_id"`
}

// InquiryStatusChangedPayload payload.
type InquiryStatusChangedPayload struct {
	OldStatus domain.InquiryStatus `json:"old_status"`
	NewStatus domain.InquiryStatus `json:"new_status"`
}

// InquiryMatchedPayload payload.
type InquiryMatchedPayload struct {
	OtherInquiryID string `json:"other_inquiry_id"`
}
