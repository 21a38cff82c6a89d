package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
)

// Stripe caps every metadata value at 500 characters.
const maxMetadataValueLen = 500

const (
	metaUserID        = "userId"
	metaServiceID     = "serviceId"
	metaTotalAmount   = "totalAmount"
	metaSelectedSlots = "selectedSlots"
	metaName          = "name"
	metaPhone         = "phone"
	metaEmail         = "email"
)

var (
	ErrMetadataTooLong   = errors.New("metadata value exceeds provider limit")
	ErrMalformedMetadata = errors.New("malformed reservation metadata")
)

// Reservation is what a checkout session carries between issuance and
// confirmation. No row exists for it until payment completes.
type Reservation struct {
	UserID      string
	ServiceID   string
	TotalAmount decimal.Decimal
	Slots       []booking.Slot
	Name        string
	Phone       string
	Email       string
}

// Metadata encodes the reservation as provider metadata.
func (r Reservation) Metadata() (map[string]string, error) {
	slots, err := json.Marshal(r.Slots)
	if err != nil {
		return nil, fmt.Errorf("encode selected slots: %w", err)
	}

	md := map[string]string{
		metaUserID:        r.UserID,
		metaServiceID:     r.ServiceID,
		metaTotalAmount:   r.TotalAmount.StringFixed(2),
		metaSelectedSlots: string(slots),
	}
	// Blank values would unset the key on the provider side.
	for k, v := range map[string]string{metaName: r.Name, metaPhone: r.Phone, metaEmail: r.Email} {
		if v != "" {
			md[k] = v
		}
	}

	for k, v := range md {
		if len(v) > maxMetadataValueLen {
			return nil, fmt.Errorf("%w: %s is %d characters", ErrMetadataTooLong, k, len(v))
		}
	}
	return md, nil
}

// ParseReservation decodes metadata written by Metadata. Any missing or
// unreadable required field is reported as ErrMalformedMetadata.
func ParseReservation(md map[string]string) (*Reservation, error) {
	serviceID := strings.TrimSpace(md[metaServiceID])
	rawSlots := md[metaSelectedSlots]
	if serviceID == "" || rawSlots == "" {
		return nil, fmt.Errorf("%w: missing serviceId or selectedSlots", ErrMalformedMetadata)
	}

	userID := strings.TrimSpace(md[metaUserID])
	if userID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrMalformedMetadata)
	}

	var raw []booking.Slot
	if err := json.Unmarshal([]byte(rawSlots), &raw); err != nil {
		return nil, fmt.Errorf("%w: selectedSlots: %v", ErrMalformedMetadata, err)
	}
	slots, err := booking.NormalizeSlots(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: selectedSlots: %v", ErrMalformedMetadata, err)
	}

	total, err := decimal.NewFromString(md[metaTotalAmount])
	if err != nil {
		return nil, fmt.Errorf("%w: totalAmount: %v", ErrMalformedMetadata, err)
	}

	return &Reservation{
		UserID:      userID,
		ServiceID:   serviceID,
		TotalAmount: total,
		Slots:       slots,
		Name:        md[metaName],
		Phone:       md[metaPhone],
		Email:       md[metaEmail],
	}, nil
}
