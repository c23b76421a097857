package payment

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the only provider event the service acts on.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrSignature is returned when an event payload fails verification.
var ErrSignature = errors.New("payment event signature invalid")

// CheckoutSession is a hosted payment page opened for a listing fee.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is a verified provider notification.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

// Gateway opens checkout sessions and authenticates their completion events.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64, successURL, cancelURL string) (CheckoutSession, error)
	// VerifyAndParseEvent checks the signature over the raw payload before
	// decoding anything. Failures wrap ErrSignature.
	VerifyAndParseEvent(payload []byte, signature string) (Event, error)
}
