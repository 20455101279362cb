package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueGeneration is the Redis list key for clip generation jobs.
	QueueGeneration = "worker:generation"
	// QueueDLQ is the dead-letter list for jobs the worker could not settle.
	QueueDLQ = "worker:dlq"
	// DequeueTimeout bounds each BLPOP so the worker notices shutdown.
	DequeueTimeout = 5 * time.Second
	// ErrorBackoff is the pause after a Redis error before dequeuing again.
	ErrorBackoff = 2 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeGenerateClips JobType = "generate_clips"
)

// GenerationPayload is the payload for clip generation jobs.
// JobID references the durable generation_jobs row; the Redis message is only a dispatch signal.
type GenerationPayload struct {
	JobID   int64 `json:"job_id"`
	VideoID int64 `json:"video_id"`
	UserID  int64 `json:"user_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	DeadReason string          `json:"dead_reason,omitempty"`
}

// Generation decodes the envelope payload as a GenerationPayload.
func (j *Job) Generation() (GenerationPayload, error) {
	var p GenerationPayload
	if j.Type != JobTypeGenerateClips {
		return p, fmt.Errorf("unexpected job type: %s", j.Type)
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.VideoID <= 0 || p.UserID <= 0 {
		return p, fmt.Errorf("payload missing video_id or user_id")
	}
	return p, nil
}

// NewGenerationJob wraps a generation payload in a fresh envelope.
func NewGenerationJob(payload GenerationPayload) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      JobTypeGenerateClips,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueGeneration pushes a generation dispatch signal.
func (q *Queue) EnqueueGeneration(ctx context.Context, payload GenerationPayload) error {
	job, err := NewGenerationJob(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueGeneration, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued generation job",
		zap.String("envelope_id", job.ID),
		zap.Int64("job_id", payload.JobID),
		zap.Int64("video_id", payload.VideoID),
	)
	return nil
}

// Dequeue waits up to DequeueTimeout for a job. Returns nil, nil on timeout or an unreadable message.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, DequeueTimeout, QueueGeneration).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// DeadLetter parks a job in the DLQ. Generation runs are never re-run automatically.
func (q *Queue) DeadLetter(ctx context.Context, job *Job, reason string) error {
	job.DeadReason = reason
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("envelope_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("envelope_id", job.ID), zap.String("reason", reason))
	return nil
}
