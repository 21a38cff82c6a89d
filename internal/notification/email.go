package notification

import (
	"context"
	"errors"
)

// Sender delivers a rendered email, either directly or by queueing it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// EmailNotifier renders booking emails and hands them to a Sender.
type EmailNotifier struct {
	sender     Sender
	adminEmail string
}

func NewEmailNotifier(sender Sender, adminEmail string) *EmailNotifier {
	return &EmailNotifier{sender: sender, adminEmail: adminEmail}
}

func (n *EmailNotifier) BookingConfirmed(ctx context.Context, c Confirmation) error {
	msgs, err := ConfirmationEmails(c, n.adminEmail)
	if err != nil {
		return err
	}
	return n.sendAll(ctx, msgs)
}

func (n *EmailNotifier) BookingRefunded(ctx context.Context, r RefundNotice) error {
	msgs, err := RefundEmails(r, n.adminEmail)
	if err != nil {
		return err
	}
	return n.sendAll(ctx, msgs)
}

// sendAll attempts every message even if an earlier one fails.
func (n *EmailNotifier) sendAll(ctx context.Context, msgs []Message) error {
	var errs []error
	for _, m := range msgs {
		if err := n.sender.Send(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
