package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeEmailSend = "email:send"

func NewEmailTask(msg Message) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeEmailSend, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		// Keep the ID around long enough to absorb provider redeliveries.
		asynq.Retention(24 * time.Hour),
	}
	if msg.ID != "" {
		opts = append(opts, asynq.TaskID(msg.ID))
	}
	return task, opts, nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskQueue is a Sender that enqueues emails for cmd/worker to deliver.
type TaskQueue struct {
	client enqueuer
}

func NewTaskQueue(client *asynq.Client) *TaskQueue {
	return &TaskQueue{client: client}
}

func (q *TaskQueue) Send(ctx context.Context, msg Message) error {
	task, opts, err := NewEmailTask(msg)
	if err != nil {
		return fmt.Errorf("build email task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue email task: %w", err)
	}
	return nil
}

// HandleEmailTask delivers queued emails with the given sender.
func HandleEmailTask(sender Sender, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(task.Payload(), &msg); err != nil {
			log.Error("invalid email task payload", zap.Error(err))
			return fmt.Errorf("decode email task: %v: %w", err, asynq.SkipRetry)
		}

		if err := sender.Send(ctx, msg); err != nil {
			log.Warn("email delivery failed", zap.String("id", msg.ID), zap.String("to", msg.To), zap.Error(err))
			return err
		}

		log.Info("email delivered", zap.String("id", msg.ID), zap.String("to", msg.To))
		return nil
	}
}
