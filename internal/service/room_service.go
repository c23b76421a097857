package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/config"
	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/payment"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/storage"
	"github.com/sukritx/roommatebase/internal/validation"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// Listing contract defaults applied when the owner sends none.
const (
	defaultAdvancePaymentDays = 14
	defaultMinLeaseMonths     = 6
)

// RoomService coordinates the room listing lifecycle.
type RoomService struct {
	rooms      repository.RoomRepository
	gateway    payment.Gateway
	assets     storage.AssetStore
	dispatcher events.Dispatcher
	validator  *validation.Validator
	logger     *zap.Logger
	payment    config.PaymentConfig
	storage    config.StorageConfig
	search     config.SearchConfig
}

// RoomDependencies bundles collaborators for the room service.
type RoomDependencies struct {
	RoomRepo   repository.RoomRepository
	Gateway    payment.Gateway
	Assets     storage.AssetStore
	Dispatcher events.Dispatcher
	Validator  *validation.Validator
	Logger     *zap.Logger
}

// CoordinatesInput is a WGS84 point.
type CoordinatesInput struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// LocationInput describes where a room is.
type LocationInput struct {
	Address     string            `json:"address" validate:"required,max=300"`
	Coordinates *CoordinatesInput `json:"coordinates"`
	Benefits    []string          `json:"benefits" validate:"max=20,dive,max=100"`
}

// ContractTermsInput holds the owner's lease conditions.
type ContractTermsInput struct {
	RentDeposit        float64 `json:"rent_deposit" validate:"gte=0"`
	KeyDeposit         float64 `json:"key_deposit" validate:"gte=0"`
	AdvancePaymentDays *int    `json:"advance_payment_days" validate:"omitempty,gte=0,lte=365"`
	SharedUtilities    *bool   `json:"shared_utilities"`
	MinLeaseDuration   *int    `json:"min_lease_duration" validate:"omitempty,gte=1,lte=120"`
	CustomTerms        string  `json:"custom_terms" validate:"maxrunes=2000"`
}

// RoomInput is the listing detail payload for create and update.
type RoomInput struct {
	Title         string             `json:"title" validate:"required,max=200"`
	Description   string             `json:"description" validate:"required,maxrunes=5000"`
	MaxRoommates  int                `json:"max_roommates" validate:"min=1,max=20"`
	AvailableFrom *time.Time         `json:"available_from" validate:"required"`
	PricePerMonth float64            `json:"price_per_month" validate:"gte=0"`
	Location      LocationInput      `json:"location"`
	ContractTerms ContractTermsInput `json:"contract_terms"`
	Amenities     domain.Amenities   `json:"amenities"`
}

// RoomQuery filters the public listing search.
type RoomQuery struct {
	PriceMin     *float64
	PriceMax     *float64
	MaxRoommates *int
	Amenities    []string
	Near         *domain.GeoPoint
	Status       *domain.RoomStatus
	Limit        int
	Offset       int
}

// NewRoomService constructs the service.
func NewRoomService(cfg config.Config, deps RoomDependencies) *RoomService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{
		rooms:      deps.RoomRepo,
		gateway:    deps.Gateway,
		assets:     deps.Assets,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
		logger:     logger,
		payment:    cfg.Payment,
		storage:    cfg.Storage,
		search:     cfg.Search,
	}
}

// CreateRoom uploads the images, opens the listing fee checkout and stores
// the room unpublished. Nothing is persisted if the checkout cannot be opened.
func (s *RoomService) CreateRoom(ctx context.Context, actor Actor, input RoomInput, uploads []storage.Upload) (*domain.Room, payment.CheckoutSession, error) {
	if actor.Role != domain.RoleOwner {
		return nil, payment.CheckoutSession{}, apperrors.NewUnauthorized("only owners can list rooms")
	}
	if err := s.validateRoomInput(input); err != nil {
		return nil, payment.CheckoutSession{}, err
	}
	if err := s.validateUploads(uploads); err != nil {
		return nil, payment.CheckoutSession{}, err
	}

	images, err := s.uploadImages(ctx, actor.UserID, uploads)
	if err != nil {
		return nil, payment.CheckoutSession{}, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, s.payment.ListingFeeCents, s.payment.SuccessURL, s.payment.CancelURL)
	if err != nil {
		s.discardImages(ctx, images)
		return nil, payment.CheckoutSession{}, apperrors.NewPaymentGatewayError(err)
	}

	room := buildRoom(input)
	room.OwnerID = actor.UserID
	room.Images = images
	room.ListingFeeCents = s.payment.ListingFeeCents
	room.Status = domain.RoomStatusAvailable
	room.PaymentStatus = domain.PaymentStatusPending
	room.PaymentSessionID = session.ID
	room.CurrentRoommates = []string{}

	if err := s.rooms.Create(ctx, room); err != nil {
		s.discardImages(ctx, images)
		return nil, payment.CheckoutSession{}, err
	}

	publishEvent(ctx, s.dispatcher, events.New(events.EventRoomCreated, room.ID, "", actor.UserID,
		events.RoomCreatedPayload{
			Title:            room.Title,
			MaxRoommates:     room.MaxRoommates,
			PaymentSessionID: session.ID,
		}))
	return room, session, nil
}

// GetRoom returns a published room.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}
	if !room.Published() {
		return nil, apperrors.NewNotFound("room", nil)
	}
	return room, nil
}

// ListOwnerRooms returns every room of the caller, published or not.
func (s *RoomService) ListOwnerRooms(ctx context.Context, actor Actor) ([]domain.Room, error) {
	owner := actor.UserID
	return s.rooms.List(ctx, repository.RoomFilter{OwnerID: &owner, Limit: s.search.MaxLimit})
}

// UpdateRoom replaces the listing details of a room the caller owns.
func (s *RoomService) UpdateRoom(ctx context.Context, actor Actor, roomID string, input RoomInput) (*domain.Room, error) {
	if err := s.validateRoomInput(input); err != nil {
		return nil, err
	}
	existing, err := s.ownedRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	room := buildRoom(input)
	room.ID = existing.ID
	room.OwnerID = existing.OwnerID
	room.Images = existing.Images
	if err := s.rooms.Update(ctx, room); err != nil {
		switch {
		case isNoRows(err):
			return nil, apperrors.NewNotFound("room", nil)
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, apperrors.NewValidationError("invalid input", map[string]any{
				"max_roommates": fmt.Sprintf("must be at least %d current roommates", len(existing.CurrentRoommates)),
			})
		}
		return nil, err
	}
	return room, nil
}

// MarkFilled closes a room the caller owns to new inquiries.
func (s *RoomService) MarkFilled(ctx context.Context, actor Actor, roomID string) (*domain.Room, error) {
	room, err := s.rooms.SetStatus(ctx, roomID, actor.UserID, domain.RoomStatusFilled)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.New(events.EventRoomFilled, room.ID, "", actor.UserID, nil))
	return room, nil
}

// DeleteRoom removes a room the caller owns. Inquiries referencing it are kept.
func (s *RoomService) DeleteRoom(ctx context.Context, actor Actor, roomID string) error {
	room, err := s.ownedRoom(ctx, actor, roomID)
	if err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, room.ID, actor.UserID); err != nil {
		if isNoRows(err) {
			return apperrors.NewNotFound("room", nil)
		}
		return err
	}
	s.discardImages(ctx, room.Images)
	publishEvent(ctx, s.dispatcher, events.New(events.EventRoomDeleted, room.ID, "", actor.UserID, nil))
	return nil
}

// QueryRooms searches published rooms. Status defaults to available and
// proximity uses the configured fixed radius.
func (s *RoomService) QueryRooms(ctx context.Context, query RoomQuery) ([]domain.Room, error) {
	details := map[string]any{}
	for _, flag := range query.Amenities {
		if !isAmenityFlag(flag) {
			details["amenities"] = "unknown amenity " + flag
		}
	}
	if query.PriceMin != nil && query.PriceMax != nil && *query.PriceMin > *query.PriceMax {
		details["price"] = "min must not exceed max"
	}
	if query.Status != nil && !query.Status.Valid() {
		details["status"] = "must be one of available pending filled"
	}
	if query.Near != nil && (query.Near.Latitude < -90 || query.Near.Latitude > 90 || query.Near.Longitude < -180 || query.Near.Longitude > 180) {
		details["near"] = "must be a valid coordinate"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid query", details)
	}

	status := domain.RoomStatusAvailable
	if query.Status != nil {
		status = *query.Status
	}
	paid := domain.PaymentStatusPaid

	limit := query.Limit
	if limit <= 0 {
		limit = s.search.DefaultLimit
	}
	if s.search.MaxLimit > 0 && limit > s.search.MaxLimit {
		limit = s.search.MaxLimit
	}

	return s.rooms.List(ctx, repository.RoomFilter{
		PriceMin:      query.PriceMin,
		PriceMax:      query.PriceMax,
		MaxRoommates:  query.MaxRoommates,
		Amenities:     query.Amenities,
		Near:          query.Near,
		RadiusMeters:  s.search.RadiusMeters,
		Status:        &status,
		PaymentStatus: &paid,
		Limit:         limit,
		Offset:        query.Offset,
	})
}

// ownedRoom hides rooms of other owners behind NotFound.
func (s *RoomService) ownedRoom(ctx context.Context, actor Actor, roomID string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}
	if room.OwnerID != actor.UserID {
		return nil, apperrors.NewNotFound("room", nil)
	}
	return room, nil
}

func (s *RoomService) validateRoomInput(input RoomInput) error {
	if err := s.validator.Validate(input); err != nil {
		return err
	}
	if strings.TrimSpace(input.Title) == "" {
		return apperrors.NewValidationError("invalid input", map[string]any{"title": "is required"})
	}
	return nil
}

func (s *RoomService) validateUploads(uploads []storage.Upload) error {
	if s.storage.MaxImages > 0 && len(uploads) > s.storage.MaxImages {
		return apperrors.NewValidationError("invalid input", map[string]any{
			"images": fmt.Sprintf("must be at most %d", s.storage.MaxImages),
		})
	}
	for i, upload := range uploads {
		if len(upload.Data) == 0 {
			return apperrors.NewValidationError("invalid input", map[string]any{
				fmt.Sprintf("images[%d]", i): "is empty",
			})
		}
		if s.storage.MaxImageBytes > 0 && len(upload.Data) > s.storage.MaxImageBytes {
			return apperrors.NewValidationError("invalid input", map[string]any{
				fmt.Sprintf("images[%d]", i): fmt.Sprintf("must be at most %d bytes", s.storage.MaxImageBytes),
			})
		}
	}
	return nil
}

func (s *RoomService) uploadImages(ctx context.Context, ownerID string, uploads []storage.Upload) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(uploads))
	for i, upload := range uploads {
		img, err := s.assets.Upload(ctx, ownerID, upload)
		if err != nil {
			s.discardImages(ctx, images)
			if errors.Is(err, storage.ErrUnsupportedImage) {
				return nil, apperrors.NewValidationError("invalid input", map[string]any{
					fmt.Sprintf("images[%d]", i): "must be a jpeg, png, webp or gif image",
				})
			}
			return nil, apperrors.NewUploadError(err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *RoomService) discardImages(ctx context.Context, images []domain.Image) {
	if len(images) == 0 || s.assets == nil {
		return
	}
	keys := make([]string, len(images))
	for i, img := range images {
		keys[i] = img.Key
	}
	if err := s.assets.Delete(ctx, keys); err != nil {
		s.logger.Warn("failed to remove room images", zap.Strings("keys", keys), zap.Error(err))
	}
}

func buildRoom(input RoomInput) *domain.Room {
	room := &domain.Room{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		MaxRoommates:  input.MaxRoommates,
		AvailableFrom: input.AvailableFrom.UTC(),
		PricePerMonth: input.PricePerMonth,
		Location: domain.Location{
			Address:  strings.TrimSpace(input.Location.Address),
			Benefits: input.Location.Benefits,
		},
		Amenities: input.Amenities,
	}
	if c := input.Location.Coordinates; c != nil {
		room.Location.Coordinates = &domain.GeoPoint{Latitude: c.Latitude, Longitude: c.Longitude}
	}

	terms := domain.ContractTerms{
		RentDeposit:        input.ContractTerms.RentDeposit,
		KeyDeposit:         input.ContractTerms.KeyDeposit,
		AdvancePaymentDays: defaultAdvancePaymentDays,
		SharedUtilities:    true,
		MinLeaseDuration:   defaultMinLeaseMonths,
		CustomTerms:        input.ContractTerms.CustomTerms,
	}
	if v := input.ContractTerms.AdvancePaymentDays; v != nil {
		terms.AdvancePaymentDays = *v
	}
	if v := input.ContractTerms.SharedUtilities; v != nil {
		terms.SharedUtilities = *v
	}
	if v := input.ContractTerms.MinLeaseDuration; v != nil {
		terms.MinLeaseDuration = *v
	}
	room.ContractTerms = terms
	return room
}

func isAmenityFlag(flag string) bool {
	for _, known := range domain.AmenityFlags {
		if known == flag {
			return true
		}
	}
	return false
}
