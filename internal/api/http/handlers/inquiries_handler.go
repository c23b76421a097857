package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sukritx/roommatebase/internal/api/dto"
	"github.com/sukritx/roommatebase/internal/service"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// InquiriesHandler exposes the inquiry lifecycle.
type InquiriesHandler struct {
	inquiries *service.InquiryService
}

// NewInquiriesHandler constructs handler.
func NewInquiriesHandler(inquiryService *service.InquiryService) *InquiriesHandler {
	return &InquiriesHandler{inquiries: inquiryService}
}

// CreateInquiry POST /inquiries.
func (h *InquiriesHandler) CreateInquiry(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var input service.InquiryInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	if _, err := uuid.Parse(input.RoomID); err != nil && input.RoomID != "" {
		return apperrors.NewNotFound("room", nil)
	}
	inquiry, err := h.inquiries.CreateInquiry(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewInquiryResponse(inquiry)})
}

// ListMine GET /inquiries/mine.
func (h *InquiriesHandler) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	inquiries, err := h.inquiries.ListForStudent(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryList(inquiries)})
}

// GetInquiry GET /inquiries/:id.
func (h *InquiriesHandler) GetInquiry(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "inquiry")
	if err != nil {
		return err
	}
	inquiry, err := h.inquiries.GetInquiry(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryResponse(inquiry)})
}

// History GET /inquiries/:id/history.
func (h *InquiriesHandler) History(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "inquiry")
	if err != nil {
		return err
	}
	history, err := h.inquiries.ListHistory(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransitionList(history)})
}

// SetStatus PATCH /inquiries/:id/status.
func (h *InquiriesHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "inquiry")
	if err != nil {
		return err
	}
	var input service.StatusInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	inquiry, err := h.inquiries.SetStatus(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryResponse(inquiry)})
}

// Withdraw POST /inquiries/:id/withdraw.
func (h *InquiriesHandler) Withdraw(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "inquiry")
	if err != nil {
		return err
	}
	inquiry, err := h.inquiries.Withdraw(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryResponse(inquiry)})
}

// ProposeMatch POST /inquiries/:id/match.
func (h *InquiriesHandler) ProposeMatch(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "inquiry")
	if err != nil {
		return err
	}
	var req dto.MatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := uuid.Parse(req.OtherInquiryID); err != nil {
		return apperrors.NewNotFound("matching inquiry", nil)
	}
	inquiry, err := h.inquiries.ProposeMatch(c.UserContext(), actor, id, req.OtherInquiryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInquiryResponse(inquiry)})
}
