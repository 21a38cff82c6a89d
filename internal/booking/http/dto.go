package http

import (
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing the caller's bookings.
type ListBookingsRequest struct {
	request.ListParams
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=pending paid cancelled"`
	BookingStatus string `form:"booking_status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
}

type ServiceTag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SlotResponse struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type BookingResponse struct {
	ID              string         `json:"id"`
	Service         ServiceTag     `json:"service"`
	Slots           []SlotResponse `json:"slots"`
	TotalAmount     string         `json:"totalAmount"`
	PaymentStatus   string         `json:"paymentStatus"`
	BookingStatus   string         `json:"bookingStatus"`
	PaymentIntentID *string        `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	slots := make([]SlotResponse, len(b.Slots))
	for i, s := range b.Slots {
		slots[i] = SlotResponse{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
	}

	return BookingResponse{
		ID:              b.ID,
		Service:         ServiceTag{ID: b.ServiceID, Title: b.ServiceTitle},
		Slots:           slots,
		TotalAmount:     b.TotalAmount.StringFixed(2),
		PaymentStatus:   string(b.PaymentStatus),
		BookingStatus:   string(b.Status),
		PaymentIntentID: b.PaymentIntentID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
