package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/port"
	"vod-service/pkg/errno"
)

// MemoryJobQueue 基于内存的任务队列，单进程部署或测试使用
type MemoryJobQueue struct {
	queue     chan *memoryEntry
	active    map[string]*memoryEntry
	completed []*entity.TranscodeJob
	failed    []*entity.TranscodeJob
	closed    bool
	mu        sync.RWMutex
	metrics   QueueMetrics
}

type memoryEntry struct {
	job  *entity.TranscodeJob
	opts port.EnqueueOptions
}

// QueueMetrics 队列指标
type QueueMetrics struct {
	EnqueueCount uint64
	DequeueCount uint64
	MaxSize      int
	CurrentSize  int
	Active       int
}

// NewMemoryJobQueue 创建内存任务队列
func NewMemoryJobQueue(capacity int) *MemoryJobQueue {
	if capacity <= 0 {
		capacity = 1000 // 默认容量
	}
	return &MemoryJobQueue{
		queue:   make(chan *memoryEntry, capacity),
		active:  make(map[string]*memoryEntry),
		metrics: QueueMetrics{MaxSize: capacity},
	}
}

var _ port.JobQueue = (*MemoryJobQueue)(nil)

// Enqueue 入队任务，队列满时立即返回错误
func (q *MemoryJobQueue) Enqueue(ctx context.Context, jobType string, job *entity.TranscodeJob, opts port.EnqueueOptions) (string, error) {
	if job == nil {
		return "", fmt.Errorf("job cannot be nil")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", port.ErrQueueClosed
	}

	job.ID = uuid.NewString()
	job.Type = jobType
	job.MaxAttempts = opts.MaxAttempts
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	select {
	case q.queue <- &memoryEntry{job: job, opts: opts}:
		q.metrics.EnqueueCount++
		return job.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", errno.NewBizError(errno.ErrQueueFull, nil)
	}
}

// Dequeue 阻塞直到取到任务、超时或 ctx 结束
func (q *MemoryJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*entity.TranscodeJob, error) {
	q.mu.RLock()
	ch, closed := q.queue, q.closed
	q.mu.RUnlock()
	if closed {
		return nil, port.ErrQueueClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e, ok := <-ch:
		if !ok {
			return nil, port.ErrQueueClosed
		}
		q.mu.Lock()
		e.job.Attempt++
		e.job.StartedAt = time.Now()
		q.active[e.job.ID] = e
		q.metrics.DequeueCount++
		q.mu.Unlock()
		return cloneJob(e.job), nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ActiveJobs 当前执行中的任务快照
func (q *MemoryJobQueue) ActiveJobs(_ context.Context) ([]*entity.TranscodeJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*entity.TranscodeJob, 0, len(q.active))
	for _, e := range q.active {
		out = append(out, cloneJob(e.job))
	}
	return out, nil
}

// ReportProgress 更新进度，非 active 任务忽略
func (q *MemoryJobQueue) ReportProgress(_ context.Context, jobID string, progress int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.active[jobID]; ok {
		e.job.SetProgress(progress)
	}
	return nil
}

// Complete 结束任务；失败且未达最大次数时重新入队
func (q *MemoryJobQueue) Complete(_ context.Context, jobID string, jobErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.active[jobID]
	if !ok {
		return errno.NotFound("job %s is not active", jobID)
	}
	delete(q.active, jobID)
	e.job.FinishedAt = time.Now()

	if jobErr == nil {
		q.completed = keepLast(append(q.completed, e.job), e.opts.KeepCompleted)
		return nil
	}
	e.job.Error = jobErr.Error()
	if e.job.Attempt < e.opts.MaxAttempts && !q.closed {
		select {
		case q.queue <- e:
			return nil
		default:
		}
	}
	q.failed = keepLast(append(q.failed, e.job), e.opts.KeepFailed)
	return nil
}

// Finished 已完成与失败任务（保留期内）
func (q *MemoryJobQueue) Finished() (completed, failed []*entity.TranscodeJob) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]*entity.TranscodeJob(nil), q.completed...), append([]*entity.TranscodeJob(nil), q.failed...)
}

// Close 关闭队列
func (q *MemoryJobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}

// GetMetrics 获取队列指标
func (q *MemoryJobQueue) GetMetrics() QueueMetrics {
	q.mu.RLock()
	defer q.mu.RUnlock()
	m := q.metrics
	m.CurrentSize = len(q.queue)
	m.Active = len(q.active)
	return m
}

func keepLast(list []*entity.TranscodeJob, n int) []*entity.TranscodeJob {
	if n <= 0 {
		return list[:0]
	}
	if len(list) > n {
		return append([]*entity.TranscodeJob(nil), list[len(list)-n:]...)
	}
	return list
}

func cloneJob(j *entity.TranscodeJob) *entity.TranscodeJob {
	c := *j
	return &c
}
