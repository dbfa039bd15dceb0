package progress

import (
	"context"
	"time"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/vo"
	"vod-service/pkg/logger"
)

// QueueSink 进度写回队列的 active 任务，并可选地广播事件
type QueueSink struct {
	queue     port.JobQueue
	publisher gateway.EventPublisher
	now       func() time.Time
}

// NewQueueSink publisher 可以为 nil
func NewQueueSink(queue port.JobQueue, publisher gateway.EventPublisher) port.ProgressSink {
	return &QueueSink{queue: queue, publisher: publisher, now: time.Now}
}

// SaveProgress 进度只增不减，重复值直接忽略
func (s *QueueSink) SaveProgress(ctx context.Context, job *entity.TranscodeJob, progress int) error {
	if job == nil || !job.SetProgress(progress) {
		return nil
	}
	if s.queue != nil {
		if err := s.queue.ReportProgress(ctx, job.ID, job.Progress); err != nil {
			return err
		}
	}
	s.publish(ctx, job, vo.EncodingProcessing)
	return nil
}

// SaveResult 广播最终状态，队列状态由 Complete 维护
func (s *QueueSink) SaveResult(ctx context.Context, job *entity.TranscodeJob, jobErr error) error {
	if job == nil {
		return nil
	}
	status := vo.EncodingCompleted
	if jobErr != nil {
		status = vo.EncodingFailed
	} else {
		job.SetProgress(100)
	}
	s.publish(ctx, job, status)
	return nil
}

func (s *QueueSink) publish(ctx context.Context, job *entity.TranscodeJob, status vo.EncodingStatus) {
	if s.publisher == nil {
		return
	}
	event := gateway.ProgressEvent{
		ContentID: job.ContentID,
		JobID:     job.ID,
		Progress:  job.Progress,
		Status:    status.String(),
		Timestamp: s.now(),
	}
	// 事件只用于展示，发布失败不影响转码
	if err := s.publisher.PublishProgress(ctx, event); err != nil {
		logger.Warnf("Publish progress event failed content_id=%s job_id=%s error=%v", job.ContentID, job.ID, err)
	}
}
