package gateway

import (
	"context"
	"time"
)

// ProgressEvent 转码进度事件，按 content_id 分区
type ProgressEvent struct {
	ContentID string    `json:"content_id"`
	JobID     string    `json:"job_id"`
	Progress  int       `json:"progress"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 事件发布
type EventPublisher interface {
	PublishProgress(ctx context.Context, event ProgressEvent) error
}
