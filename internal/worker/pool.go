package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"focustrack_backend/pkg/monitoring"
	"focustrack_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Handler 处理一种类型的任务，返回错误会触发重试
type Handler func(ctx context.Context, job *Job) error

// ErrUnknownJobType 未注册的任务类型，不重试
var ErrUnknownJobType = errors.New("unknown job type")

// RetryPolicy Backoff[i] 为第 i+1 次失败后的等待时间，超出长度时沿用最后一项
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute},
	}
}

func (p RetryPolicy) Delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt-1]
}

type Pool struct {
	queue       Queue
	policy      RetryPolicy
	concurrency int
	log         *zap.Logger

	mu        sync.RWMutex
	handlers  map[string]Handler
	onFailure func(job *Job, err error)

	// 测试中替换为同步调度，返回值用于取消尚未触发的调度
	schedule func(d time.Duration, f func()) (stop func() bool)

	pendingMu sync.Mutex
	pending   map[string]*pendingRetry

	workers sync.WaitGroup
	retries sync.WaitGroup
	cancel  context.CancelFunc
}

// pendingRetry 等待退避结束的任务
type pendingRetry struct {
	stop func() bool
	run  func()
}

func NewPool(queue Queue, policy RetryPolicy, concurrency int, log *zap.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		queue:       queue,
		policy:      policy,
		concurrency: concurrency,
		log:         log.Named("worker"),
		handlers:    make(map[string]Handler),
		pending:     make(map[string]*pendingRetry),
		schedule: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

func (p *Pool) Register(jobType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

// OnPermanentFailure 重试耗尽或任务类型未知时回调
func (p *Pool) OnPermanentFailure(fn func(job *Job, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailure = fn
}

// Start 先恢复上次未确认的任务，再启动 worker
func (p *Pool) Start(ctx context.Context) {
	if r, ok := p.queue.(Recoverer); ok {
		n, err := r.Recover(ctx)
		if err != nil {
			p.log.Error("recover in-flight jobs failed", zap.Error(err))
		} else if n > 0 {
			p.log.Info("recovered in-flight jobs", zap.Int("count", n))
		}
	}

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.concurrency; i++ {
		p.workers.Add(1)
		go p.loop(ctx, i)
	}
	p.log.Info("worker pool started", zap.Int("concurrency", p.concurrency))
}

// Stop 等待正在执行的任务结束，尚未到期的重试立即放回队列
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.workers.Wait()
	n := p.flushRetries()
	p.log.Info("worker pool stopped", zap.Int("flushed_retries", n))
}

// flushRetries 取消退避计时，直接重新入队
func (p *Pool) flushRetries() int {
	p.pendingMu.Lock()
	pending := make([]pendingRetry, 0, len(p.pending))
	for _, r := range p.pending {
		pending = append(pending, *r)
	}
	p.pendingMu.Unlock()

	n := 0
	for _, r := range pending {
		if r.stop != nil && r.stop() {
			r.run()
			n++
		}
	}
	return n
}

func (p *Pool) loop(ctx context.Context, id int) {
	defer p.workers.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("dequeue failed", zap.Int("worker", id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		p.Process(ctx, job)
	}
}

// Drain 同步执行内存队列中的全部任务，并等待已安排的重试完成
func (p *Pool) Drain(ctx context.Context, q *MemoryQueue) error {
	for {
		for job := q.TryDequeue(); job != nil; job = q.TryDequeue() {
			p.Process(ctx, job)
		}
		done := make(chan struct{})
		go func() {
			p.retries.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if q.Len() == 0 {
			return nil
		}
	}
}

// Process 执行一次任务并根据结果安排重试
func (p *Pool) Process(ctx context.Context, job *Job) {
	job.Attempt++

	p.mu.RLock()
	handler, ok := p.handlers[job.Type]
	p.mu.RUnlock()

	if !ok {
		p.fail(job, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type))
		p.ack(job)
		return
	}

	spanCtx, span := tracing.StartSpan(ctx, "job "+job.Type,
		attribute.String("job.id", job.ID),
		attribute.String("job.user_id", job.UserID),
		attribute.Int("job.attempt", job.Attempt),
	)
	start := time.Now()
	err := p.run(spanCtx, handler, job)
	monitoring.JobDuration.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, err)

	if err == nil {
		monitoring.JobsProcessed.WithLabelValues(job.Type, "success").Inc()
		p.log.Debug("job completed",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Int("attempt", job.Attempt))
		p.ack(job)
		return
	}

	monitoring.JobsProcessed.WithLabelValues(job.Type, "error").Inc()

	if job.Attempt >= p.policy.MaxAttempts {
		p.fail(job, err)
		p.ack(job)
		return
	}

	delay := p.policy.Delay(job.Attempt)
	p.log.Warn("job failed, retrying",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Duration("backoff", delay),
		zap.Error(err))

	// 重新入队之前任务仍留在处理中列表
	retry := &pendingRetry{}
	var once sync.Once
	retry.run = func() {
		once.Do(func() {
			defer p.retries.Done()
			p.pendingMu.Lock()
			delete(p.pending, job.ID)
			p.pendingMu.Unlock()

			if err := p.queue.Enqueue(context.Background(), job); err != nil {
				p.log.Error("re-enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
				p.fail(job, err)
			}
			p.ack(job)
		})
	}

	p.retries.Add(1)
	p.pendingMu.Lock()
	p.pending[job.ID] = retry
	p.pendingMu.Unlock()

	stop := p.schedule(delay, retry.run)
	p.pendingMu.Lock()
	if _, ok := p.pending[job.ID]; ok {
		retry.stop = stop
	}
	p.pendingMu.Unlock()
}

func (p *Pool) ack(job *Job) {
	a, ok := p.queue.(Acker)
	if !ok {
		return
	}
	if err := a.Ack(context.Background(), job); err != nil {
		p.log.Warn("ack job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// run 捕获 handler 中的 panic，按普通失败处理
func (p *Pool) run(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return h(ctx, job)
}

func (p *Pool) fail(job *Job, err error) {
	monitoring.JobsFailed.WithLabelValues(job.Type).Inc()
	p.log.Error("job failed permanently",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.String("user_id", job.UserID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))

	p.mu.RLock()
	fn := p.onFailure
	p.mu.RUnlock()
	if fn != nil {
		fn(job, err)
	}
}
