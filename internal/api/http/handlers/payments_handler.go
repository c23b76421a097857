package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sukritx/roommatebase/internal/service"
)

const signatureHeader = "Stripe-Signature"

// PaymentsHandler receives provider webhooks.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentService}
}

// Webhook POST /payments/webhook. The raw body is verified as delivered.
func (h *PaymentsHandler) Webhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	result, err := h.payments.ConfirmCheckout(c.UserContext(), payload, c.Get(signatureHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
