package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var ErrSignatureInvalid = apperror.New(apperror.KindSignatureInvalid, "Webhook signature verification failed")

// Verifier authenticates a raw webhook body against its signature header.
type Verifier interface {
	Verify(payload []byte, sigHeader string) (*Event, error)
}

// StripeVerifier checks the Stripe-Signature header (HMAC-SHA256 over
// "timestamp.payload") with the endpoint's signing secret.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, ErrSignatureInvalid.WithCause(err)
	}

	out := &Event{
		ID:   ev.ID,
		Type: string(ev.Type),
	}
	if out.Type != EventCheckoutSessionCompleted || ev.Data == nil {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
		return nil, apperror.Wrap(fmt.Errorf("decode checkout session: %w", err), apperror.KindMalformedEvent, "malformed checkout session")
	}

	out.SessionID = session.ID
	out.Metadata = session.Metadata
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	out.CustomerEmail = session.CustomerEmail
	if out.CustomerEmail == "" && session.CustomerDetails != nil {
		out.CustomerEmail = session.CustomerDetails.Email
	}
	return out, nil
}
