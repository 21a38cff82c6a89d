package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/catalog"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

var (
	ErrServiceNotFound = apperror.New(apperror.KindNotFound, "service not found")
	ErrMissingInput    = apperror.New(apperror.KindInvalidRequest, "service ID and slots are required")
	ErrInvalidSlots    = apperror.New(apperror.KindInvalidRequest, "invalid slot")
	ErrTooManySlots    = apperror.New(apperror.KindInvalidRequest, "too many slots for one checkout")
	ErrSlotsTaken      = apperror.New(apperror.KindConflict, "selected slots already booked")
	ErrProvider        = apperror.New(apperror.KindInternal, "failed to create checkout session")
)

type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Service, error)
}

type ConflictChecker interface {
	HasConflict(ctx context.Context, serviceID string, slots []booking.Slot) (bool, error)
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

type Request struct {
	UserID    string
	ServiceID string
	Slots     []booking.Slot
	Name      string
	Phone     string
	Email     string
}

type Options struct {
	Currency    string
	FrontendURL string
}

type Service interface {
	// IssueCheckout validates the reservation and returns the hosted payment URL.
	// It writes nothing and holds nothing.
	IssueCheckout(ctx context.Context, req Request) (string, error)
}

type service struct {
	services  ServiceLookup
	conflicts ConflictChecker
	gateway   Gateway
	opts      Options
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewService(services ServiceLookup, conflicts ConflictChecker, gateway Gateway, opts Options, log *zap.Logger, m *metrics.Metrics) Service {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &service{
		services:  services,
		conflicts: conflicts,
		gateway:   gateway,
		opts:      opts,
		log:       log,
		metrics:   m,
	}
}

func (s *service) IssueCheckout(ctx context.Context, req Request) (string, error) {
	url, err := s.issue(ctx, req)
	s.metrics.CheckoutResult(resultLabel(err))
	return url, err
}

func (s *service) issue(ctx context.Context, req Request) (string, error) {
	if req.ServiceID == "" {
		return "", ErrMissingInput
	}

	// 1. Service must exist
	if _, err := uuid.Parse(req.ServiceID); err != nil {
		return "", ErrServiceNotFound
	}
	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", ErrServiceNotFound
		}
		return "", apperror.Wrap(err, apperror.KindPersistenceFailure, "failed to load service")
	}

	// 2. Slots must be present and well-formed
	slots, err := booking.NormalizeSlots(req.Slots)
	if err != nil {
		if errors.Is(err, booking.ErrNoSlots) {
			return "", ErrMissingInput
		}
		return "", apperror.Wrap(err, apperror.KindInvalidRequest, err.Error())
	}

	// 3. None of them may already be paid for
	conflict, err := s.conflicts.HasConflict(ctx, svc.ID, slots)
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindPersistenceFailure, "failed to check slot availability")
	}
	if conflict {
		return "", ErrSlotsTaken
	}

	quantity := int64(len(slots))
	total := svc.Price.Mul(decimal.NewFromInt(quantity)).Round(2)

	md, err := Reservation{
		UserID:      req.UserID,
		ServiceID:   svc.ID,
		TotalAmount: total,
		Slots:       slots,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
	}.Metadata()
	if err != nil {
		if errors.Is(err, ErrMetadataTooLong) {
			return "", ErrTooManySlots.WithCause(err)
		}
		return "", apperror.Wrap(err, apperror.KindInternal, "failed to encode reservation")
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		ProductName:   fmt.Sprintf("Booking for %s", svc.Title),
		Currency:      s.opts.Currency,
		UnitAmount:    UnitAmount(svc.Price),
		Quantity:      quantity,
		SuccessURL:    s.opts.FrontendURL + "/success",
		CancelURL:     s.opts.FrontendURL + "/cancel",
		CustomerEmail: req.Email,
		Metadata:      md,
	})
	if err != nil {
		return "", ErrProvider.WithCause(err)
	}

	s.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", req.UserID),
		zap.String("service_id", svc.ID),
		zap.Int64("slots", quantity),
		zap.String("total", total.StringFixed(2)),
	)
	return session.URL, nil
}

// UnitAmount converts a price to minor currency units, rounding half away from zero.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func resultLabel(err error) string {
	if err == nil {
		return "created"
	}
	return string(apperror.KindOf(err))
}
