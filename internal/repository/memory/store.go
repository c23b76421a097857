// Package memory is an in-process Entity Store used in development and tests.
// A single mutex serializes every write, which gives the same atomicity as
// the Postgres transactions; the constraints mirror the SQL schema.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/repository"
)

// Store holds every record behind one lock.
type Store struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	rooms       map[string]*domain.Room
	inquiries   map[string]*domain.Inquiry
	transitions map[string][]domain.InquiryTransition
	favorites   map[string]map[string]time.Time
	now         func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		rooms:       make(map[string]*domain.Room),
		inquiries:   make(map[string]*domain.Inquiry),
		transitions: make(map[string][]domain.InquiryTransition),
		favorites:   make(map[string]map[string]time.Time),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Rooms returns the room repository view.
func (s *Store) Rooms() repository.RoomRepository { return &roomRepo{s} }

// Inquiries returns the inquiry repository view.
func (s *Store) Inquiries() repository.InquiryRepository { return &inquiryRepo{s} }

// Favorites returns the favorites repository view.
func (s *Store) Favorites() repository.FavoriteRepository { return &favoriteRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	stored.Profile = cloneProfile(user.Profile)
	stored.UpdatedAt = s.now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, pgx.ErrNoRows
}

type roomRepo struct{ s *Store }

func (r *roomRepo) Create(_ context.Context, room *domain.Room) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(room.CurrentRoommates) > room.MaxRoommates {
		return repository.ErrCapacityExceeded
	}
	now := s.now()
	room.ID = uuid.NewString()
	room.CreatedAt, room.UpdatedAt = now, now
	if room.CurrentRoommates == nil {
		room.CurrentRoommates = []string{}
	}
	if room.Images == nil {
		room.Images = []domain.Image{}
	}
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *roomRepo) GetByID(_ context.Context, id string) (*domain.Room, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneRoom(room), nil
}

func (r *roomRepo) Update(_ context.Context, room *domain.Room) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok || stored.OwnerID != room.OwnerID {
		return pgx.ErrNoRows
	}
	if len(stored.CurrentRoommates) > room.MaxRoommates {
		return repository.ErrCapacityExceeded
	}
	stored.Title = room.Title
	stored.Description = room.Description
	stored.MaxRoommates = room.MaxRoommates
	stored.AvailableFrom = room.AvailableFrom
	stored.PricePerMonth = room.PricePerMonth
	stored.Location = cloneLocation(room.Location)
	stored.Images = append([]domain.Image{}, room.Images...)
	stored.ContractTerms = room.ContractTerms
	stored.Amenities = room.Amenities
	stored.UpdatedAt = s.now()
	*room = *cloneRoom(stored)
	return nil
}

func (r *roomRepo) SetStatus(_ context.Context, id, ownerID string, status domain.RoomStatus) (*domain.Room, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[id]
	if !ok || stored.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	stored.Status = status
	stored.UpdatedAt = s.now()
	return cloneRoom(stored), nil
}

func (r *roomRepo) Delete(_ context.Context, id, ownerID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[id]
	if !ok || stored.OwnerID != ownerID {
		return pgx.ErrNoRows
	}
	delete(s.rooms, id)
	for _, favs := range s.favorites {
		delete(favs, id)
	}
	return nil
}

func (r *roomRepo) MarkPaidBySession(_ context.Context, sessionID string) (string, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.PaymentSessionID != sessionID {
			continue
		}
		if room.PaymentStatus == domain.PaymentStatusPaid {
			return "", false, nil
		}
		room.PaymentStatus = domain.PaymentStatusPaid
		room.UpdatedAt = s.now()
		return room.ID, true, nil
	}
	return "", false, nil
}

func (r *roomRepo) List(_ context.Context, filter repository.RoomFilter) ([]domain.Room, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []domain.Room{}
	for _, room := range s.rooms {
		if matchesFilter(room, filter) {
			result = append(result, *cloneRoom(room))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []domain.Room{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func matchesFilter(room *domain.Room, f repository.RoomFilter) bool {
	if f.OwnerID != nil && room.OwnerID != *f.OwnerID {
		return false
	}
	if f.Status != nil && room.Status != *f.Status {
		return false
	}
	if f.PaymentStatus != nil && room.PaymentStatus != *f.PaymentStatus {
		return false
	}
	if f.PriceMin != nil && room.PricePerMonth < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && room.PricePerMonth > *f.PriceMax {
		return false
	}
	if f.MaxRoommates != nil && room.MaxRoommates > *f.MaxRoommates {
		return false
	}
	for _, flag := range f.Amenities {
		if !room.Amenities.Has(flag) {
			return false
		}
	}
	if f.Near != nil && f.RadiusMeters > 0 {
		if room.Location.Coordinates == nil {
			return false
		}
		if haversineMeters(*f.Near, *room.Location.Coordinates) > f.RadiusMeters {
			return false
		}
	}
	return true
}

const earthRadiusMeters = 6371000

func haversineMeters(a, b domain.GeoPoint) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(b.Latitude - a.Latitude)
	dLng := rad(b.Longitude - a.Longitude)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusMeters * 2 * math.Asin(math.Sqrt(h))
}

type favoriteRepo struct{ s *Store }

func (r *favoriteRepo) Add(_ context.Context, userID, roomID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return pgx.ErrNoRows
	}
	favs, ok := s.favorites[userID]
	if !ok {
		favs = make(map[string]time.Time)
		s.favorites[userID] = favs
	}
	if _, exists := favs[roomID]; !exists {
		favs[roomID] = s.now()
	}
	return nil
}

func (r *favoriteRepo) Remove(_ context.Context, userID, roomID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites[userID], roomID)
	return nil
}

func (r *favoriteRepo) ListRooms(_ context.Context, userID string) ([]domain.Room, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	type entry struct {
		room *domain.Room
		at   time.Time
	}
	var entries []entry
	for roomID, at := range s.favorites[userID] {
		room, ok := s.rooms[roomID]
		if !ok || room.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}
		entries = append(entries, entry{room: room, at: at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	result := make([]domain.Room, 0, len(entries))
	for _, e := range entries {
		result = append(result, *cloneRoom(e.room))
	}
	return result, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Profile = cloneProfile(u.Profile)
	return &c
}

func cloneProfile(p domain.UserProfile) domain.UserProfile {
	p.Hobbies = append([]string(nil), p.Hobbies...)
	p.RoommatePreferences.Lifestyle = append([]string(nil), p.RoommatePreferences.Lifestyle...)
	return p
}

func cloneLocation(l domain.Location) domain.Location {
	if l.Coordinates != nil {
		point := *l.Coordinates
		l.Coordinates = &point
	}
	l.Benefits = append([]string(nil), l.Benefits...)
	return l
}

func cloneRoom(r *domain.Room) *domain.Room {
	c := *r
	c.Location = cloneLocation(r.Location)
	c.Images = append([]domain.Image{}, r.Images...)
	c.CurrentRoommates = append([]string{}, r.CurrentRoommates...)
	return &c
}

func cloneInquiry(i *domain.Inquiry) *domain.Inquiry {
	c := *i
	c.MatchedWith = append([]string{}, i.MatchedWith...)
	return &c
}
