package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// SessionRequest describes a hosted checkout for a single line item.
type SessionRequest struct {
	ProductName   string
	Currency      string
	UnitAmount    int64 // minor units
	Quantity      int64
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type Session struct {
	ID  string
	URL string
}

type Refund struct {
	ID     string
	Amount int64 // minor units
}

// ErrAlreadyRefunded reports that the payment intent carries no refundable
// balance because an earlier refund already returned it.
var ErrAlreadyRefunded = errors.New("payment intent already refunded")

// StripeGateway talks to the Stripe API through an injected client.
type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(sc *client.API) *StripeGateway {
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.UnitAmount),
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// Refund returns the full captured amount of the payment intent. The request
// is keyed by payment intent so redelivered webhooks replay the same refund.
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey(RefundIdempotencyKey(paymentIntentID))

	r, err := g.sc.Refunds.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			return nil, fmt.Errorf("refund payment intent %s: %w", paymentIntentID, ErrAlreadyRefunded)
		}
		return nil, fmt.Errorf("refund payment intent %s: %w", paymentIntentID, err)
	}
	return &Refund{ID: r.ID, Amount: r.Amount}, nil
}

// RefundIdempotencyKey is the Idempotency-Key sent with a payment intent's refund.
func RefundIdempotencyKey(paymentIntentID string) string {
	return "refund:" + paymentIntentID
}
