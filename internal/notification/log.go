package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier only logs booking outcomes. Used in development.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, c Confirmation) error {
	n.log.Info("booking confirmed",
		zap.String("booking_id", c.BookingID),
		zap.String("service_id", c.ServiceID),
		zap.String("email", c.Email),
		zap.Int("slots", len(c.Slots)),
		zap.String("total", c.TotalAmount.StringFixed(2)),
	)
	return nil
}

func (n *LogNotifier) BookingRefunded(_ context.Context, r RefundNotice) error {
	n.log.Warn("booking refunded after slot conflict",
		zap.String("service_id", r.ServiceID),
		zap.String("payment_intent_id", r.PaymentIntentID),
		zap.String("email", r.Email),
		zap.Int64("refund_amount", r.RefundAmount),
	)
	return nil
}
