package webhook

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/catalog"
	"github.com/nekogravitycat/service-booking-backend/internal/checkout"
	"github.com/nekogravitycat/service-booking-backend/internal/notification"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

// Outcome is what a webhook delivery did to the booking state.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRefunded  Outcome = "refunded"
)

var (
	ErrMissingPaymentIntent = errors.New("checkout session has no payment intent")
	ErrRefundFailed         = apperror.New(apperror.KindInternal, "refund failed")
)

type Store interface {
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*booking.Booking, error)
	Create(ctx context.Context, b *booking.Booking, opts booking.CreateOptions) error
}

// ServiceLookup resolves the service title shown in notifications.
type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Service, error)
}

type Refunder interface {
	Refund(ctx context.Context, paymentIntentID string) (*payment.Refund, error)
}

// Dispatcher sends notifications without blocking the caller.
type Dispatcher interface {
	BookingConfirmed(c notification.Confirmation)
	BookingRefunded(r notification.RefundNotice)
}

type Options struct {
	// RevalidateOnConfirm re-checks slot availability inside the insert
	// transaction and refunds instead of double booking.
	RevalidateOnConfirm bool
}

// Reconciler turns verified payment events into confirmed bookings. For a
// given payment intent it moves Unseen to Confirmed at most once.
type Reconciler struct {
	store    Store
	services ServiceLookup
	refunder Refunder
	notify   Dispatcher
	opts     Options
	log      *zap.Logger
}

// NewReconciler wires the reconciler. services may be nil, in which case
// notifications carry only the service ID.
func NewReconciler(store Store, services ServiceLookup, refunder Refunder, notify Dispatcher, opts Options, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		services: services,
		refunder: refunder,
		notify:   notify,
		opts:     opts,
		log:      log,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, ev *payment.Event) (Outcome, error) {
	if ev.Type != payment.EventCheckoutSessionCompleted {
		r.log.Info("event received but not handled", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return OutcomeIgnored, nil
	}

	res, err := checkout.ParseReservation(ev.Metadata)
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindMalformedEvent, "malformed checkout metadata")
	}
	if ev.PaymentIntentID == "" {
		return "", apperror.Wrap(ErrMissingPaymentIntent, apperror.KindMalformedEvent, "malformed checkout session")
	}

	customerEmail := ev.CustomerEmail
	if customerEmail == "" {
		customerEmail = res.Email
	}

	// Fast path for redeliveries. The unique index below is what actually
	// guarantees one booking per payment intent.
	existing, err := r.store.GetByPaymentIntentID(ctx, ev.PaymentIntentID)
	switch {
	case err == nil:
		r.log.Warn("duplicate webhook delivery", zap.String("payment_intent_id", ev.PaymentIntentID), zap.String("booking_id", existing.ID))
		return OutcomeDuplicate, nil
	case !errors.Is(err, booking.ErrNotFound):
		return "", apperror.Wrap(err, apperror.KindPersistenceFailure, "failed to look up booking")
	}

	paymentIntentID := ev.PaymentIntentID
	b := &booking.Booking{
		UserID:          res.UserID,
		ServiceID:       res.ServiceID,
		Slots:           res.Slots,
		TotalAmount:     res.TotalAmount,
		PaymentStatus:   booking.PaymentPaid,
		Status:          booking.StatusConfirmed,
		PaymentIntentID: &paymentIntentID,
	}

	err = r.store.Create(ctx, b, booking.CreateOptions{RevalidateSlots: r.opts.RevalidateOnConfirm})
	switch {
	case errors.Is(err, booking.ErrDuplicatePaymentIntent):
		r.log.Warn("concurrent duplicate webhook delivery", zap.String("payment_intent_id", paymentIntentID))
		return OutcomeDuplicate, nil
	case errors.Is(err, booking.ErrSlotConflict):
		return r.refund(ctx, ev, res, customerEmail)
	case err != nil:
		return "", apperror.Wrap(err, apperror.KindPersistenceFailure, "failed to create booking")
	}

	r.log.Info("booking confirmed",
		zap.String("booking_id", b.ID),
		zap.String("payment_intent_id", paymentIntentID),
		zap.String("session_id", ev.SessionID),
	)

	r.notify.BookingConfirmed(notification.Confirmation{
		BookingID:       b.ID,
		ServiceID:       b.ServiceID,
		ServiceTitle:    r.serviceTitle(ctx, b.ServiceID),
		Name:            res.Name,
		Email:           customerEmail,
		Phone:           res.Phone,
		Slots:           b.Slots,
		TotalAmount:     b.TotalAmount,
		PaymentIntentID: paymentIntentID,
	})
	return OutcomeConfirmed, nil
}

// refund runs after the insert transaction rolled back, so no booking row
// exists and a failed refund can be retried by redelivery.
func (r *Reconciler) refund(ctx context.Context, ev *payment.Event, res *checkout.Reservation, customerEmail string) (Outcome, error) {
	r.log.Warn("slot conflict after payment, refunding",
		zap.String("payment_intent_id", ev.PaymentIntentID),
		zap.String("service_id", res.ServiceID),
	)

	refund, err := r.refunder.Refund(ctx, ev.PaymentIntentID)
	switch {
	case errors.Is(err, payment.ErrAlreadyRefunded):
		// An earlier delivery refunded and notified; the redelivery only acks.
		r.log.Info("refund already issued", zap.String("payment_intent_id", ev.PaymentIntentID))
		return OutcomeRefunded, nil
	case err != nil:
		return "", ErrRefundFailed.WithCause(err)
	}

	r.notify.BookingRefunded(notification.RefundNotice{
		ServiceID:       res.ServiceID,
		ServiceTitle:    r.serviceTitle(ctx, res.ServiceID),
		Name:            res.Name,
		Email:           customerEmail,
		Phone:           res.Phone,
		Slots:           res.Slots,
		SessionID:       ev.SessionID,
		PaymentIntentID: ev.PaymentIntentID,
		RefundAmount:    refund.Amount,
	})
	return OutcomeRefunded, nil
}

// serviceTitle returns "" when the title cannot be resolved. Notifications
// fall back to the service ID, and a lookup failure never fails a paid webhook.
func (r *Reconciler) serviceTitle(ctx context.Context, serviceID string) string {
	if r.services == nil {
		return ""
	}
	svc, err := r.services.GetByID(ctx, serviceID)
	if err != nil {
		r.log.Warn("service title lookup failed", zap.String("service_id", serviceID), zap.Error(err))
		return ""
	}
	return svc.Title
}
