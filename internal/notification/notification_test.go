package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
)

func sampleConfirmation() Confirmation {
	return Confirmation{
		BookingID:    "b-1",
		ServiceID:    "svc-1",
		ServiceTitle: "Court A",
		Name:         "Alice",
		Email:        "alice@example.com",
		Phone:        "555-0100",
		Slots: []booking.Slot{
			{Date: "2025-07-01", StartTime: "10:00", EndTime: "11:00"},
			{Date: "2025-07-01", StartTime: "11:00", EndTime: "12:00"},
		},
		TotalAmount:     decimal.RequireFromString("100"),
		PaymentIntentID: "pi_123",
	}
}

// recordingSender collects sent messages and can fail for one recipient.
type recordingSender struct {
	mu     sync.Mutex
	sent   []Message
	failTo string
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.To == s.failTo {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestConfirmationEmails(t *testing.T) {
	msgs, err := ConfirmationEmails(sampleConfirmation(), "ops@example.com")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	admin, customer := msgs[0], msgs[1]
	assert.Equal(t, "ops@example.com", admin.To)
	assert.Equal(t, subjectAdminConfirmed, admin.Subject)
	assert.Contains(t, admin.HTML, "555-0100")
	assert.Contains(t, admin.HTML, "pi_123")

	assert.Equal(t, "alice@example.com", customer.To)
	assert.Equal(t, "confirmed:customer:pi_123", customer.ID)
	assert.Contains(t, customer.HTML, "Dear Alice")
	assert.Contains(t, customer.HTML, "Court A")
	assert.Contains(t, customer.HTML, "Slot 2:</strong> July 1, 2025 from 11:00 to 12:00")
	assert.Contains(t, customer.HTML, "100.00")
}

func TestConfirmationEmails_EscapesInput(t *testing.T) {
	c := sampleConfirmation()
	c.Name = "<script>alert(1)</script>"

	msgs, err := ConfirmationEmails(c, "")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.NotContains(t, msgs[0].HTML, "<script>")
}

func TestRefundEmails(t *testing.T) {
	r := RefundNotice{
		ServiceID:       "svc-1",
		Name:            "Bob",
		Email:           "bob@example.com",
		Slots:           []booking.Slot{{Date: "2025-07-01", StartTime: "10:00", EndTime: "11:00"}},
		SessionID:       "cs_1",
		PaymentIntentID: "pi_9",
		RefundAmount:    15005,
	}

	msgs, err := RefundEmails(r, "ops@example.com")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, subjectAdminConflict, msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "cs_1")
	assert.Contains(t, msgs[0].HTML, "150.05")
	assert.Equal(t, subjectCustomerRefunded, msgs[1].Subject)
	assert.Contains(t, msgs[1].HTML, "Hi Bob")
}

func TestEmailNotifier_SendsEveryMessage(t *testing.T) {
	sender := &recordingSender{failTo: "ops@example.com"}
	n := NewEmailNotifier(sender, "ops@example.com")

	err := n.BookingConfirmed(context.Background(), sampleConfirmation())
	assert.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "alice@example.com", sender.sent[0].To)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{}, nil
}

func TestTaskQueue_Send(t *testing.T) {
	t.Run("Enqueues with task id", func(t *testing.T) {
		fe := &fakeEnqueuer{}
		q := &TaskQueue{client: fe}

		require.NoError(t, q.Send(context.Background(), Message{ID: "confirmed:customer:pi_1", To: "a@example.com"}))
		require.Len(t, fe.tasks, 1)
		assert.Equal(t, TypeEmailSend, fe.tasks[0].Type())

		var hasID bool
		for _, o := range fe.opts[0] {
			if o.Type() == asynq.TaskIDOpt {
				hasID = true
				assert.Equal(t, "confirmed:customer:pi_1", o.Value())
			}
		}
		assert.True(t, hasID)
	})

	t.Run("Duplicate task id is not an error", func(t *testing.T) {
		q := &TaskQueue{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
		assert.NoError(t, q.Send(context.Background(), Message{ID: "x", To: "a@example.com"}))
	})

	t.Run("Redis failure", func(t *testing.T) {
		q := &TaskQueue{client: &fakeEnqueuer{err: errors.New("connection refused")}}
		assert.Error(t, q.Send(context.Background(), Message{ID: "x", To: "a@example.com"}))
	})
}

func TestHandleEmailTask(t *testing.T) {
	sender := &recordingSender{}
	h := HandleEmailTask(sender, zap.NewNop())

	payload, err := json.Marshal(Message{ID: "m1", To: "a@example.com", Subject: "s", HTML: "h"})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), asynq.NewTask(TypeEmailSend, payload)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "m1", sender.sent[0].ID)

	err = h(context.Background(), asynq.NewTask(TypeEmailSend, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "booking.events"}

	require.NoError(t, p.BookingConfirmed(context.Background(), sampleConfirmation()))
	require.NoError(t, p.BookingRefunded(context.Background(), RefundNotice{PaymentIntentID: "pi_9", RefundAmount: 100}))

	assert.Equal(t, []string{RoutingKeyConfirmed, RoutingKeyRefunded}, ch.keys)
	assert.Equal(t, "pi_123", ch.published[0].MessageId)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var got Confirmation
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, "svc-1", got.ServiceID)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Len(t, got.Slots, 2)
}

type failingNotifier struct{}

func (failingNotifier) BookingConfirmed(context.Context, Confirmation) error {
	return errors.New("smtp down")
}

func (failingNotifier) BookingRefunded(ctx context.Context, _ RefundNotice) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestAsync_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.New("test")
	a := NewAsync(failingNotifier{}, "smtp", 20*time.Millisecond, zap.New(core), m)

	a.BookingConfirmed(sampleConfirmation())
	a.BookingRefunded(RefundNotice{PaymentIntentID: "pi_9"})
	require.NoError(t, a.Wait(context.Background()))

	entries := logs.FilterMessage("notification failed").All()
	require.Len(t, entries, 2)
}

type blockingNotifier struct{ release chan struct{} }

func (b blockingNotifier) BookingConfirmed(context.Context, Confirmation) error {
	<-b.release
	return nil
}

func (b blockingNotifier) BookingRefunded(context.Context, RefundNotice) error { return nil }

func TestAsync_WaitIsBoundedByContext(t *testing.T) {
	n := blockingNotifier{release: make(chan struct{})}
	a := NewAsync(n, "smtp", time.Minute, zap.NewNop(), nil)
	a.BookingConfirmed(sampleConfirmation())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Wait(ctx), context.DeadlineExceeded)

	close(n.release)
	require.NoError(t, a.Wait(context.Background()))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.BookingConfirmed(context.Background(), sampleConfirmation()))
	require.NoError(t, n.BookingRefunded(context.Background(), RefundNotice{PaymentIntentID: "pi_9"}))
	assert.Equal(t, 1, logs.FilterMessage("booking confirmed").Len())
	assert.Equal(t, 1, logs.FilterMessage("booking refunded after slot conflict").Len())
}
