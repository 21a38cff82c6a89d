package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyConfirmed = "booking.confirmed"
	RoutingKeyRefunded  = "booking.refunded"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher emits booking events to a topic exchange for downstream consumers
// (mailers, analytics) instead of sending email itself.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) BookingConfirmed(ctx context.Context, c Confirmation) error {
	return p.publishJSON(ctx, RoutingKeyConfirmed, c.PaymentIntentID, c)
}

func (p *Publisher) BookingRefunded(ctx context.Context, r RefundNotice) error {
	return p.publishJSON(ctx, RoutingKeyRefunded, r.PaymentIntentID, r)
}

func (p *Publisher) publishJSON(ctx context.Context, key, messageID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         b,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
