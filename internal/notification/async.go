package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
)

// Async runs notifications in the background so they never delay or fail the
// caller. Errors are logged and counted, nothing else.
type Async struct {
	notifier  Notifier
	transport string
	timeout   time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

func NewAsync(n Notifier, transport string, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{
		notifier:  n,
		transport: transport,
		timeout:   timeout,
		log:       log,
		metrics:   m,
	}
}

func (a *Async) BookingConfirmed(c Confirmation) {
	a.run("booking_confirmed", c.PaymentIntentID, func(ctx context.Context) error {
		return a.notifier.BookingConfirmed(ctx, c)
	})
}

func (a *Async) BookingRefunded(r RefundNotice) {
	a.run("booking_refunded", r.PaymentIntentID, func(ctx context.Context) error {
		return a.notifier.BookingRefunded(ctx, r)
	})
}

// Wait blocks until in-flight notifications finish or ctx is done, whichever
// comes first. Notifications still running after ctx ends are abandoned.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run(kind, paymentIntentID string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("notification panicked", zap.String("kind", kind), zap.Any("panic", r))
			}
		}()

		// Detached from the request: the webhook response is already on its way.
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := fn(ctx)
		a.metrics.NotificationResult(a.transport, err)
		if err != nil {
			a.log.Warn("notification failed",
				zap.String("kind", kind),
				zap.String("transport", a.transport),
				zap.String("payment_intent_id", paymentIntentID),
				zap.Error(err),
			)
		}
	}()
}
