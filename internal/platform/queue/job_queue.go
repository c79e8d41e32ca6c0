package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"algoryth/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// JobQueue carries judge jobs between the API and the judge worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.JudgeJob) error
	Requeue(ctx context.Context, job model.JudgeJob) error
	// Dequeue blocks up to timeout. It returns (nil, nil) when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*model.JudgeJob, error)
}

type RedisJobQueue struct {
	rdb  *redis.Client
	name string
}

func NewRedisJobQueue(rdb *redis.Client, name string) *RedisJobQueue {
	return &RedisJobQueue{rdb: rdb, name: name}
}

// Enqueue pushes on the head; the worker pops from the tail.
func (q *RedisJobQueue) Enqueue(ctx context.Context, job model.JudgeJob) error {
	if err := q.push(ctx, job); err != nil {
		return fmt.Errorf("RedisJobQueue.Enqueue: %w", err)
	}
	return nil
}

// Requeue puts the job behind the ones already waiting.
func (q *RedisJobQueue) Requeue(ctx context.Context, job model.JudgeJob) error {
	if err := q.push(ctx, job); err != nil {
		return fmt.Errorf("RedisJobQueue.Requeue: %w", err)
	}
	return nil
}

func (q *RedisJobQueue) push(ctx context.Context, job model.JudgeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.name, payload).Err()
}

func (q *RedisJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.JudgeJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("RedisJobQueue.Dequeue: %w", err)
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, nil
	}

	var job model.JudgeJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		// Bare ids are accepted as a first attempt.
		return &model.JudgeJob{SubmissionID: res[1]}, nil
	}
	return &job, nil
}

func (q *RedisJobQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
