package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/briangreenhill/feedgate/internal/jobs"
)

// Enqueuer is the subset of *asynq.Client used by QueueSink
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands events to the worker, which persists them
type QueueSink struct {
	client Enqueuer
}

func NewQueueSink(c Enqueuer) *QueueSink {
	return &QueueSink{client: c}
}

func (s *QueueSink) LogRequest(ctx context.Context, ev Event) error {
	id := uuid.NewString()
	payload, err := json.Marshal(jobs.LogRequestPayload{
		EventID:   id,
		Method:    ev.Method,
		Path:      ev.Path,
		Status:    ev.Status,
		LatencyMs: ev.LatencyMs,
		Client:    ev.Client,
		AtUnix:    ev.At.Unix(),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(jobs.TaskLogRequest, payload)
	if _, err := s.client.EnqueueContext(ctx, task,
		asynq.TaskID(id),
		asynq.Queue(jobs.QueueStats),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobs.TaskLogRequest, err)
	}
	return nil
}
