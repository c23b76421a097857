package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/sukritx/roommatebase/internal/config"
)

// StripeGateway implements Gateway on Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	productName   string
	logger        *zap.Logger
}

// NewStripeGateway builds a gateway with its own API client.
func NewStripeGateway(cfg config.PaymentConfig, logger *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		productName:   cfg.ProductName,
		logger:        logger,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, amountCents int64, successURL, cancelURL string) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(g.productName),
				},
				UnitAmount: stripe.Int64(amountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	g.logger.Debug("checkout session created", zap.String("session_id", session.ID))
	return CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) VerifyAndParseEvent(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	parsed := Event{ID: event.ID, Type: string(event.Type)}
	if parsed.Type != EventCheckoutCompleted || event.Data == nil {
		return parsed, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return Event{}, fmt.Errorf("decode checkout session: %w", err)
	}
	parsed.SessionID = session.ID
	return parsed, nil
}
