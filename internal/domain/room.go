package domain

import "time"

// RoomStatus is the occupancy state advertised to students.
type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusPending   RoomStatus = "pending"
	RoomStatusFilled    RoomStatus = "filled"
)

// Valid reports whether s is a known room status.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusPending, RoomStatusFilled:
		return true
	}
	return false
}

// PaymentStatus tracks the listing fee. Only paid rooms are published.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location describes where the room is.
type Location struct {
	Address     string    `json:"address"`
	Coordinates *GeoPoint `json:"coordinates,omitempty"`
	Benefits    []string  `json:"benefits,omitempty"`
}

// Image references an uploaded listing photo.
type Image struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ContractTerms are the owner's standard lease conditions.
type ContractTerms struct {
	RentDeposit        float64 `json:"rent_deposit"`
	KeyDeposit         float64 `json:"key_deposit"`
	AdvancePaymentDays int     `json:"advance_payment_days"`
	SharedUtilities    bool    `json:"shared_utilities"`
	MinLeaseDuration   int     `json:"min_lease_duration"`
	CustomTerms        string  `json:"custom_terms,omitempty"`
}

// Amenities are boolean listing features plus free text.
type Amenities struct {
	Wifi            bool   `json:"wifi"`
	Parking         bool   `json:"parking"`
	Dishwasher      bool   `json:"dishwasher"`
	Fridge          bool   `json:"fridge"`
	WashingMachine  bool   `json:"washing_machine"`
	AirConditioning bool   `json:"air_conditioning"`
	Heating         bool   `json:"heating"`
	Furnished       bool   `json:"furnished"`
	Others          string `json:"others,omitempty"`
}

// AmenityFlags lists the filterable amenity keys.
var AmenityFlags = []string{
	"wifi", "parking", "dishwasher", "fridge", "washing_machine",
	"air_conditioning", "heating", "furnished",
}

// Has reports whether the named amenity flag is set.
func (a Amenities) Has(flag string) bool {
	switch flag {
	case "wifi":
		return a.Wifi
	case "parking":
		return a.Parking
	case "dishwasher":
		return a.Dishwasher
	case "fridge":
		return a.Fridge
	case "washing_machine":
		return a.WashingMachine
	case "air_conditioning":
		return a.AirConditioning
	case "heating":
		return a.Heating
	case "furnished":
		return a.Furnished
	}
	return false
}

// Room is a shared-housing listing with a fixed roommate capacity.
type Room struct {
	ID               string
	OwnerID          string
	Title            string
	Description      string
	MaxRoommates     int
	AvailableFrom    time.Time
	PricePerMonth    float64
	ListingFeeCents  int64
	Location         Location
	Images           []Image
	ContractTerms    ContractTerms
	Amenities        Amenities
	Status           RoomStatus
	PaymentStatus    PaymentStatus
	PaymentSessionID string
	CurrentRoommates []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRoommate reports whether userID already occupies the room.
func (r *Room) HasRoommate(userID string) bool {
	for _, id := range r.CurrentRoommates {
		if id == userID {
			return true
		}
	}
	return false
}

// HasVacancy reports whether another roommate fits.
func (r *Room) HasVacancy() bool {
	return len(r.CurrentRoommates) < r.MaxRoommates
}

// Published reports whether the listing fee has been confirmed.
func (r *Room) Published() bool {
	return r.PaymentStatus == PaymentStatusPaid
}
