package port

import (
	"context"

	"vod-service/ddd/domain/entity"
)

// ProgressSink 接收 Worker 上报的进度与最终结果
type ProgressSink interface {
	SaveProgress(ctx context.Context, job *entity.TranscodeJob, progress int) error
	SaveResult(ctx context.Context, job *entity.TranscodeJob, jobErr error) error
}
