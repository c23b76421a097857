package domain

import "time"

// InquiryStatus enumerates lifecycle states for inquiries.
type InquiryStatus string

const (
	InquiryStatusPending   InquiryStatus = "pending"
	InquiryStatusAccepted  InquiryStatus = "accepted"
	InquiryStatusRejected  InquiryStatus = "rejected"
	InquiryStatusWithdrawn InquiryStatus = "withdrawn"
)

// Valid reports whether s is a known inquiry status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusAccepted, InquiryStatusRejected, InquiryStatusWithdrawn:
		return true
	}
	return false
}

// Active reports whether the status counts toward the one-active-inquiry-per-room rule.
func (s InquiryStatus) Active() bool {
	return s == InquiryStatusPending || s == InquiryStatusAccepted
}

// Terminal reports whether no further transition is possible.
func (s InquiryStatus) Terminal() bool {
	return s == InquiryStatusRejected || s == InquiryStatusWithdrawn
}

// LifestylePreferences are the student's stated habits for this room.
type LifestylePreferences struct {
	Smoking         bool   `json:"smoking"`
	Pets            bool   `json:"pets"`
	Quiet           bool   `json:"quiet"`
	Visitors        string `json:"visitors,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// InquiryTerms are the terms a student proposes to the owner.
type InquiryTerms struct {
	RentSplit      string               `json:"rent_split"`
	MoveInDate     time.Time            `json:"move_in_date"`
	DurationMonths int                  `json:"duration_months"`
	Preferences    LifestylePreferences `json:"preferences"`
}

// Inquiry is a student's request to join a room.
type Inquiry struct {
	ID          string
	RoomID      string
	StudentID   string
	Terms       InquiryTerms
	Status      InquiryStatus
	MatchedWith []string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsMatchedWith reports whether studentID is already in the matched set.
func (i *Inquiry) IsMatchedWith(studentID string) bool {
	for _, id := range i.MatchedWith {
		if id == studentID {
			return true
		}
	}
	return false
}

// InquiryTransition is an immutable audit entry for a status change.
// From is nil for the creation entry.
type InquiryTransition struct {
	ID        string
	InquiryID string
	ActorID   string
	From      *InquiryStatus
	To        InquiryStatus
	CreatedAt time.Time
}
