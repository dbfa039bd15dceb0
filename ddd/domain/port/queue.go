package port

import (
	"context"
	"errors"
	"time"

	"vod-service/ddd/domain/entity"
)

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("queue closed")

// EnqueueOptions 重试与保留策略
type EnqueueOptions struct {
	MaxAttempts   int
	KeepCompleted int
	KeepFailed    int
}

// DefaultEnqueueOptions 不自动重试，完成/失败各保留 100 条
func DefaultEnqueueOptions() EnqueueOptions {
	return EnqueueOptions{MaxAttempts: 1, KeepCompleted: 100, KeepFailed: 100}
}

// JobQueue 转码任务队列
type JobQueue interface {
	// Enqueue 提交任务，返回队列分配的 ID
	Enqueue(ctx context.Context, jobType string, job *entity.TranscodeJob, opts EnqueueOptions) (string, error)

	// Dequeue 取出一个任务并标记为 active，超时返回 nil, nil
	Dequeue(ctx context.Context, timeout time.Duration) (*entity.TranscodeJob, error)

	// ActiveJobs 当前执行中的任务
	ActiveJobs(ctx context.Context) ([]*entity.TranscodeJob, error)

	// ReportProgress 更新 active 任务进度
	ReportProgress(ctx context.Context, jobID string, progress int) error

	// Complete 结束任务，jobErr 非空时进入失败列表
	Complete(ctx context.Context, jobID string, jobErr error) error

	Close() error
}
