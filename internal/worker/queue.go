package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const EmailQueue = "queue:email"

const JobPasswordReset = "password_reset"

// EmailJob is one queued outgoing message.
type EmailJob struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	To       string `json:"to"`
	Token    string `json:"token"`
	Attempts int    `json:"attempts"`
}

type jobQueue interface {
	Push(ctx context.Context, job EmailJob) error
	// Pop blocks up to timeout and returns nil when nothing arrived.
	Pop(ctx context.Context, timeout time.Duration) (*EmailJob, error)
	// Lock claims one delivery attempt of a job so it is processed once.
	Lock(ctx context.Context, job *EmailJob, ttl time.Duration) (bool, error)
}

// RedisQueue is a FIFO list of email jobs. It also satisfies
// services.PasswordResetMailer, so request handlers only enqueue.
type RedisQueue struct {
	redis *redis.Client
}

func NewRedisQueue(redisClient *redis.Client) *RedisQueue {
	return &RedisQueue{redis: redisClient}
}

func (q *RedisQueue) SendPasswordResetEmail(to, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return q.Push(ctx, EmailJob{ID: uuid.NewString(), Kind: JobPasswordReset, To: to, Token: token})
}

func (q *RedisQueue) Push(ctx context.Context, job EmailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.redis.RPush(ctx, EmailQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*EmailJob, error) {
	result, err := q.redis.BLPop(ctx, timeout, EmailQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse email job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Lock(ctx context.Context, job *EmailJob, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("job_lock:%s:%d", job.ID, job.Attempts)
	return q.redis.SetNX(ctx, lockKey, "1", ttl).Result()
}
