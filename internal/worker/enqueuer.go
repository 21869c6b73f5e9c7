package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jkarlos000/sw1-p1/internal/tasks"
)

// TaskClient is the part of *asynq.Client the enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer submits assistant turns to the worker queue.
type Enqueuer struct {
	client TaskClient
}

func NewEnqueuer(client TaskClient) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueAIChat(ctx context.Context, p tasks.AIChatPayload) error {
	task, err := tasks.NewAIChatTask(p)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("worker: enqueue %s: %w", tasks.TypeAIChat, err)
	}
	return nil
}
