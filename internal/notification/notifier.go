package notification

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
)

// Confirmation describes a booking that was just confirmed by payment.
type Confirmation struct {
	BookingID       string          `json:"bookingId"`
	ServiceID       string          `json:"serviceId"`
	ServiceTitle    string          `json:"serviceTitle,omitempty"`
	Name            string          `json:"name,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Slots           []booking.Slot  `json:"slots"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentIntentID string          `json:"paymentIntentId"`
}

// RefundNotice describes a paid checkout that was refunded because its slots
// were taken by the time the payment was confirmed.
type RefundNotice struct {
	ServiceID       string         `json:"serviceId"`
	ServiceTitle    string         `json:"serviceTitle,omitempty"`
	Name            string         `json:"name,omitempty"`
	Email           string         `json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Slots           []booking.Slot `json:"slots"`
	SessionID       string         `json:"sessionId"`
	PaymentIntentID string         `json:"paymentIntentId"`
	RefundAmount    int64          `json:"refundAmount"` // minor units
}

// Notifier tells the customer and the operator about booking outcomes.
type Notifier interface {
	BookingConfirmed(ctx context.Context, c Confirmation) error
	BookingRefunded(ctx context.Context, r RefundNotice) error
}
