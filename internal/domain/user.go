package domain

import "time"

// Role separates listing owners from students looking for a room.
type Role string

const (
	RoleStudent Role = "student"
	RoleOwner   Role = "owner"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleOwner
}

// User is the account behind every caller of the marketplace.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Profile      UserProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile holds the self-described profile and roommate preferences.
type UserProfile struct {
	Age                 *int                `json:"age,omitempty" validate:"omitempty,min=16,max=120"`
	Gender              string              `json:"gender,omitempty" validate:"max=50"`
	University          string              `json:"university,omitempty" validate:"max=200"`
	Work                string              `json:"work,omitempty" validate:"max=200"`
	Hobbies             []string            `json:"hobbies,omitempty" validate:"max=20,dive,max=50"`
	Faculty             string              `json:"faculty,omitempty" validate:"max=200"`
	Year                *int                `json:"year,omitempty" validate:"omitempty,min=1,max=10"`
	RoommatePreferences RoommatePreferences `json:"roommate_preferences"`
	ContactInfo         ContactInfo         `json:"contact_info"`
	Privacy             PrivacySettings     `json:"privacy"`
}

// RoommatePreferences describes how a user likes to live.
type RoommatePreferences struct {
	Smoking            bool     `json:"smoking"`
	Pets               bool     `json:"pets"`
	Noise              string   `json:"noise,omitempty" validate:"omitempty,oneof=quiet moderate loud"`
	Visitors           string   `json:"visitors,omitempty" validate:"omitempty,oneof=none occasional frequent"`
	Lifestyle          []string `json:"lifestyle,omitempty" validate:"max=20,dive,max=50"`
	MorningOrLateNight string   `json:"morning_or_late_night,omitempty" validate:"omitempty,oneof=morning night flexible"`
	Cleanliness        string   `json:"cleanliness,omitempty" validate:"omitempty,oneof=very_clean clean moderate relaxed"`
	Partying           string   `json:"partying,omitempty" validate:"omitempty,oneof=never occasionally frequently"`
}

// ContactInfo is shown to other users only when privacy allows it.
type ContactInfo struct {
	Instagram string `json:"instagram,omitempty"`
	Phone     string `json:"phone,omitempty" validate:"max=30"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// PrivacySettings toggles which profile parts are public.
type PrivacySettings struct {
	ShowLastName    bool `json:"show_last_name"`
	ShowContactInfo bool `json:"show_contact_info"`
}
