package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sukritx/roommatebase/internal/api/dto"
	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/service"
	"github.com/sukritx/roommatebase/internal/storage"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// RoomsHandler exposes room listing endpoints.
type RoomsHandler struct {
	rooms     *service.RoomService
	inquiries *service.InquiryService
}

// NewRoomsHandler constructs handler.
func NewRoomsHandler(roomService *service.RoomService, inquiryService *service.InquiryService) *RoomsHandler {
	return &RoomsHandler{rooms: roomService, inquiries: inquiryService}
}

// CreateRoom POST /rooms. Accepts JSON, or multipart with the JSON listing
// in the "payload" field and photos under "images".
func (h *RoomsHandler) CreateRoom(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var input service.RoomInput
	var uploads []storage.Upload
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		input, uploads, err = parseMultipartRoom(c)
		if err != nil {
			return err
		}
	} else if err := parseBody(c, &input); err != nil {
		return err
	}

	room, session, err := h.rooms.CreateRoom(c.UserContext(), actor, input, uploads)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateRoomResponse{
		Room:     dto.NewRoomResponse(room),
		Checkout: dto.CheckoutResponse{SessionID: session.ID, URL: session.URL},
	}})
}

// ListRooms GET /rooms.
func (h *RoomsHandler) ListRooms(c *fiber.Ctx) error {
	query, err := parseRoomQuery(c)
	if err != nil {
		return err
	}
	rooms, err := h.rooms.QueryRooms(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomList(rooms)})
}

// ListMine GET /rooms/mine.
func (h *RoomsHandler) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	rooms, err := h.rooms.ListOwnerRooms(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomList(rooms)})
}

// GetRoom GET /rooms/:id.
func (h *RoomsHandler) GetRoom(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "room")
	if err != nil {
		return err
	}
	room, err := h.rooms.GetRoom(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomResponse(room)})
}

// UpdateRoom PUT /rooms/:id.
func (h *RoomsHandler) UpdateRoom(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "room")
	if err != nil {
		return err
	}
	var input service.RoomInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	room, err := h.rooms.UpdateRoom(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomResponse(room)})
}

// MarkFilled POST /rooms/:id/fill.
func (h *RoomsHandler) MarkFilled(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "room")
	if err != nil {
		return err
	}
	room, err := h.rooms.MarkFilled(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoomResponse(room)})
}

// DeleteRoom DELETE /rooms/:id.
func (h *RoomsHandler) DeleteRoom(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "room")
	if err != nil {
		return err
	}
	if err := h.rooms.DeleteRoom(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListInquiries GET /rooms/:id/inquiries.
func (h *RoomsHandler) ListInquiries(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "room")
	if err != nil {
		return err
	}
	inquiries, err := h.inquiries.ListForRoom(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryList(inquiries)})
}

func parseMultipartRoom(c *fiber.Ctx) (service.RoomInput, []storage.Upload, error) {
	var input service.RoomInput
	form, err := c.MultipartForm()
	if err != nil {
		return input, nil, apperrors.NewValidationError("invalid multipart payload", nil)
	}
	payload := form.Value["payload"]
	if len(payload) == 0 {
		return input, nil, apperrors.NewValidationError("invalid payload", map[string]any{"payload": "is required"})
	}
	if err := c.App().Config().JSONDecoder([]byte(payload[0]), &input); err != nil {
		return input, nil, apperrors.NewValidationError("invalid payload", nil)
	}

	files := form.File["images"]
	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return input, nil, apperrors.NewValidationError("invalid image", map[string]any{"images": fh.Filename})
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return input, nil, apperrors.NewValidationError("invalid image", map[string]any{"images": fh.Filename})
		}
		uploads = append(uploads, storage.Upload{Filename: fh.Filename, Data: data})
	}
	return input, uploads, nil
}

func parseRoomQuery(c *fiber.Ctx) (service.RoomQuery, error) {
	var query service.RoomQuery
	var err error
	if query.PriceMin, err = parseOptionalFloat(c, "price_min"); err != nil {
		return query, err
	}
	if query.PriceMax, err = parseOptionalFloat(c, "price_max"); err != nil {
		return query, err
	}
	if query.MaxRoommates, err = parseOptionalInt(c, "max_roommates"); err != nil {
		return query, err
	}
	query.Amenities = splitList(c.Query("amenities"))

	lat, err := parseOptionalFloat(c, "lat")
	if err != nil {
		return query, err
	}
	lng, err := parseOptionalFloat(c, "lng")
	if err != nil {
		return query, err
	}
	switch {
	case lat != nil && lng != nil:
		query.Near = &domain.GeoPoint{Latitude: *lat, Longitude: *lng}
	case lat != nil || lng != nil:
		return query, apperrors.NewValidationError("invalid query", map[string]any{"near": "lat and lng must be given together"})
	}

	if status := c.Query("status"); status != "" {
		s := domain.RoomStatus(status)
		query.Status = &s
	}
	if query.Limit, err = parseIntQuery(c, "limit", 0); err != nil {
		return query, err
	}
	if query.Offset, err = parseIntQuery(c, "offset", 0); err != nil {
		return query, err
	}
	return query, nil
}
