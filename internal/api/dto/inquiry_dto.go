package dto

import (
	"time"

	"github.com/sukritx/roommatebase/internal/domain"
)

// MatchRequest names the inquiry to pair with.
type MatchRequest struct {
	OtherInquiryID string `json:"other_inquiry_id"`
}

// InquiryResponse is the view of an inquiry shared by its student and the room owner.
type InquiryResponse struct {
	ID          string               `json:"id"`
	RoomID      string               `json:"room_id"`
	StudentID   string               `json:"student_id"`
	Terms       domain.InquiryTerms  `json:"terms"`
	Status      domain.InquiryStatus `json:"status"`
	MatchedWith []string             `json:"matched_with"`
	Message     string               `json:"message"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// TransitionResponse is one audit entry.
type TransitionResponse struct {
	ID        string                `json:"id"`
	ActorID   string                `json:"actor_id"`
	From      *domain.InquiryStatus `json:"from"`
	To        domain.InquiryStatus  `json:"to"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewInquiryResponse maps a domain inquiry.
func NewInquiryResponse(i *domain.Inquiry) InquiryResponse {
	matched := i.MatchedWith
	if matched == nil {
		matched = []string{}
	}
	return InquiryResponse{
		ID:          i.ID,
		RoomID:      i.RoomID,
		StudentID:   i.StudentID,
		Terms:       i.Terms,
		Status:      i.Status,
		MatchedWith: matched,
		Message:     i.Message,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// NewInquiryList maps a slice of inquiries.
func NewInquiryList(inquiries []domain.Inquiry) []InquiryResponse {
	items := make([]InquiryResponse, 0, len(inquiries))
	for i := range inquiries {
		items = append(items, NewInquiryResponse(&inquiries[i]))
	}
	return items
}

// NewTransitionList maps audit entries.
func NewTransitionList(transitions []domain.InquiryTransition) []TransitionResponse {
	items := make([]TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		items = append(items, TransitionResponse{
			ID:        t.ID,
			ActorID:   t.ActorID,
			From:      t.From,
			To:        t.To,
			CreatedAt: t.CreatedAt,
		})
	}
	return items
}
