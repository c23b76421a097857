package dto

import (
	"time"

	"github.com/sukritx/roommatebase/internal/domain"
)

// RoomResponse is the listing view of a room.
type RoomResponse struct {
	ID               string               `json:"id"`
	OwnerID          string               `json:"owner_id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	MaxRoommates     int                  `json:"max_roommates"`
	CurrentRoommates []string             `json:"current_roommates"`
	AvailableFrom    time.Time            `json:"available_from"`
	PricePerMonth    float64              `json:"price_per_month"`
	ListingFeeCents  int64                `json:"listing_fee_cents"`
	Location         domain.Location      `json:"location"`
	Images           []domain.Image       `json:"images"`
	ContractTerms    domain.ContractTerms `json:"contract_terms"`
	Amenities        domain.Amenities     `json:"amenities"`
	Status           domain.RoomStatus    `json:"status"`
	PaymentStatus    domain.PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// CheckoutResponse points the owner at the listing fee payment page.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateRoomResponse is returned when a room is listed.
type CreateRoomResponse struct {
	Room     RoomResponse     `json:"room"`
	Checkout CheckoutResponse `json:"checkout"`
}

// NewRoomResponse maps a domain room.
func NewRoomResponse(r *domain.Room) RoomResponse {
	roommates := r.CurrentRoommates
	if roommates == nil {
		roommates = []string{}
	}
	images := r.Images
	if images == nil {
		images = []domain.Image{}
	}
	return RoomResponse{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Title:            r.Title,
		Description:      r.Description,
		MaxRoommates:     r.MaxRoommates,
		CurrentRoommates: roommates,
		AvailableFrom:    r.AvailableFrom,
		PricePerMonth:    r.PricePerMonth,
		ListingFeeCents:  r.ListingFeeCents,
		Location:         r.Location,
		Images:           images,
		ContractTerms:    r.ContractTerms,
		Amenities:        r.Amenities,
		Status:           r.Status,
		PaymentStatus:    r.PaymentStatus,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// NewRoomList maps a slice of rooms.
func NewRoomList(rooms []domain.Room) []RoomResponse {
	items := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		items = append(items, NewRoomResponse(&rooms[i]))
	}
	return items
}
