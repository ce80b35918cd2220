package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultQueueKey = "queue:jobs"

var ErrQueueFull = errors.New("job queue is full")

// Queue Dequeue 在等待超时后返回 (nil, nil)
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
	Dequeue(ctx context.Context) (*Job, error)
}

// Acker 出队后任务先进入处理中列表，处理结束后确认移除
type Acker interface {
	Ack(ctx context.Context, job *Job) error
}

// Recoverer 启动时把上次未确认的任务放回待处理队列
type Recoverer interface {
	Recover(ctx context.Context) (int, error)
}

// RedisQueue LPUSH 入队，BRPOPLPUSH 出队到 <key>:processing，Ack 后删除
type RedisQueue struct {
	rdb        *redis.Client
	key        string
	processing string
	timeout    time.Duration
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{rdb: rdb, key: key, processing: key + ":processing", timeout: 5 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	raw, err := q.rdb.BRPopLPush(ctx, q.key, q.processing, q.timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.rdb.LRem(ctx, q.processing, 1, raw)
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job.receipt = raw
	return &job, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	if job.receipt == "" {
		return nil
	}
	if err := q.rdb.LRem(ctx, q.processing, 1, job.receipt).Err(); err != nil {
		return err
	}
	job.receipt = ""
	return nil
}

// Recover 多实例共享同一队列时只应由一个实例在启动时调用
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.RPopLPush(ctx, q.processing, q.key).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// MemoryQueue 进程内队列，用于开发环境、命令行单次执行和测试
type MemoryQueue struct {
	ch      chan *Job
	timeout time.Duration
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{ch: make(chan *Job, size), timeout: time.Second}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case job := <-q.ch:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}

// TryDequeue 不阻塞，队列为空时返回 nil
func (q *MemoryQueue) TryDequeue() *Job {
	select {
	case job := <-q.ch:
		return job
	default:
		return nil
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
