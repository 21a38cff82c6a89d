package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrNoSlots       = errors.New("at least one slot must be booked")
	ErrInvalidSlot   = errors.New("invalid slot")
	ErrDuplicateSlot = errors.New("duplicate slot in request")

	// ErrDuplicatePaymentIntent is returned when a booking already exists for the payment intent.
	ErrDuplicatePaymentIntent = errors.New("booking already exists for payment intent")

	// ErrSlotConflict is returned when a paid booking of the same service already holds one of the slots.
	ErrSlotConflict = errors.New("selected slots already booked")
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking is a confirmed claim on one or more slots of a service.
// Rows are only ever created by payment confirmation, already paid and confirmed.
type Booking struct {
	ID              string
	UserID          string
	ServiceID       string
	ServiceTitle    string
	Slots           []Slot
	TotalAmount     decimal.Decimal
	PaymentStatus   PaymentStatus
	Status          Status
	PaymentIntentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateOptions tunes how a confirmed booking is persisted.
type CreateOptions struct {
	// RevalidateSlots re-runs the conflict check inside the insert transaction
	// and fails with ErrSlotConflict instead of writing.
	RevalidateSlots bool
}

type Filter struct {
	UserID        string
	PaymentStatus string
	Status        string
	Page          int
	PageSize      int
}

func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
