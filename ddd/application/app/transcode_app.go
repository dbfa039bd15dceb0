package app

import (
	"context"
	"fmt"
	"sync"

	"vod-service/ddd/application/cqe"
	"vod-service/ddd/application/dto"
	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/service"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/database/persistence"
	"vod-service/internal/resource"
	"vod-service/pkg/assert"
	"vod-service/pkg/config"
	"vod-service/pkg/errno"
	"vod-service/pkg/logger"
)

var (
	singleTranscodeApp TranscodeApp
	onceTranscodeApp   sync.Once
)

type TranscodeApp interface {
	// Enqueue 写入占位记录并提交本地转码任务，返回任务 ID
	Enqueue(ctx context.Context, req *cqe.EnqueueTranscodeReq) (*dto.EnqueueResultDTO, error)
	// GetStatus 查询编码状态，CDN 视频转交 CDNApp
	GetStatus(ctx context.Context, contentID string) (*dto.VideoStatusDTO, error)
	// DeleteVideo 删除视频产物并清空编码字段
	DeleteVideo(ctx context.Context, contentID string) error
	// ActiveJobs 当前执行中的任务
	ActiveJobs(ctx context.Context) ([]*entity.TranscodeJob, error)
}

type transcodeAppImpl struct {
	contents   repo.ContentRepository
	renditions repo.RenditionRepository
	queue      port.JobQueue
	blobs      gateway.BlobStore
	cdnApp     CDNApp
	opts       port.EnqueueOptions
}

func DefaultTranscodeApp() TranscodeApp {
	assert.NotCircular()
	onceTranscodeApp.Do(func() {
		cfg := config.GetGlobalConfig()
		db := resource.DefaultDatabaseResource().MainDB()
		opts := port.DefaultEnqueueOptions()
		opts.KeepCompleted = cfg.Queue.KeepCompleted
		opts.KeepFailed = cfg.Queue.KeepFailed
		singleTranscodeApp = NewTranscodeApp(
			persistence.NewContentRepository(db),
			persistence.NewRenditionRepository(db),
			resource.DefaultTranscodeQueueResource().Queue(),
			resource.DefaultBlobStore(),
			DefaultCDNApp(),
			opts,
		)
	})
	assert.NotNil(singleTranscodeApp)
	return singleTranscodeApp
}

func NewTranscodeApp(
	contents repo.ContentRepository,
	renditions repo.RenditionRepository,
	queue port.JobQueue,
	blobs gateway.BlobStore,
	cdnApp CDNApp,
	opts port.EnqueueOptions,
) TranscodeApp {
	// 任务不自动重试，失败后由调用方重新提交
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &transcodeAppImpl{
		contents:   contents,
		renditions: renditions,
		queue:      queue,
		blobs:      blobs,
		cdnApp:     cdnApp,
		opts:       opts,
	}
}

func (t *transcodeAppImpl) Enqueue(ctx context.Context, req *cqe.EnqueueTranscodeReq) (*dto.EnqueueResultDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := t.contents.Get(ctx, req.ContentID); err != nil {
		return nil, err
	}
	if req.SourcePath == "" {
		return nil, errno.InvalidRequest("source path is required")
	}
	if t.queue == nil {
		return nil, fmt.Errorf("transcode queue is not available")
	}

	placeholder := []*entity.RenditionRecord{entity.NewPlaceholderRecord(req.ContentID)}
	if err := t.renditions.ReplaceAll(ctx, req.ContentID, placeholder); err != nil {
		return nil, err
	}

	job := entity.NewTranscodeJob(req.ContentID, req.SourcePath, req.Filename)
	jobID, err := t.queue.Enqueue(ctx, entity.JobTypeTranscode, job, t.opts)
	if err != nil {
		logger.Errorf("Enqueue transcode job failed content_id=%s error=%v", req.ContentID, err)
		return nil, err
	}

	logger.Info("Transcode job enqueued", map[string]interface{}{
		"content_id":  req.ContentID,
		"job_id":      jobID,
		"source_path": req.SourcePath,
	})
	return &dto.EnqueueResultDTO{JobID: jobID}, nil
}

func (t *transcodeAppImpl) GetStatus(ctx context.Context, contentID string) (*dto.VideoStatusDTO, error) {
	asset, err := t.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if asset.IsCDN() {
		return t.cdnApp.SyncStatus(ctx, contentID)
	}

	records, err := t.renditions.ListByAsset(ctx, contentID)
	if err != nil {
		return nil, err
	}
	status := vo.DeriveOverallStatus(entity.Statuses(records))
	out := &dto.VideoStatusDTO{
		ContentID:          contentID,
		ProviderAssetID:    asset.ProviderAssetID(),
		Status:             status.String(),
		AvailableQualities: vo.QualityStrings(entity.CompletedQualities(records)),
		ThumbnailURL:       asset.ThumbnailURL(),
		Duration:           dto.PositiveIntPtr(asset.DurationSeconds()),
	}

	if status == vo.EncodingProcessing {
		if p, ok := t.liveProgress(ctx, contentID); ok {
			out.Progress = dto.IntPtr(p)
		}
	}
	return out, nil
}

// liveProgress 在执行中的任务里找到该视频的进度，找不到不算错误
func (t *transcodeAppImpl) liveProgress(ctx context.Context, contentID string) (int, bool) {
	jobs, err := t.ActiveJobs(ctx)
	if err != nil {
		logger.Warnf("Load active jobs failed content_id=%s error=%v", contentID, err)
		return 0, false
	}
	for _, job := range jobs {
		if job.ContentID == contentID {
			return job.Progress, true
		}
	}
	return 0, false
}

func (t *transcodeAppImpl) ActiveJobs(ctx context.Context) ([]*entity.TranscodeJob, error) {
	if t.queue == nil {
		return nil, nil
	}
	return t.queue.ActiveJobs(ctx)
}

func (t *transcodeAppImpl) DeleteVideo(ctx context.Context, contentID string) error {
	asset, err := t.contents.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if asset.IsCDN() {
		return t.cdnApp.DeleteVideo(ctx, contentID)
	}

	records, err := t.renditions.ListByAsset(ctx, contentID)
	if err != nil {
		return err
	}
	if asset.Provider() == vo.ProviderNone && len(records) == 0 {
		return errno.InvalidRequest("content %s has no video", contentID)
	}

	if t.blobs != nil {
		if err := t.blobs.DeletePrefix(ctx, service.AssetPrefix(contentID)); err != nil {
			return fmt.Errorf("delete video objects: %w", err)
		}
		if err := t.blobs.Delete(ctx, service.ThumbnailKey(contentID)); err != nil {
			logger.Warnf("Delete thumbnail failed content_id=%s error=%v", contentID, err)
		}
	}
	if err := t.renditions.DeleteByAsset(ctx, contentID); err != nil {
		return err
	}
	asset.ResetProvider()
	if err := t.contents.UpdateEncoding(ctx, asset); err != nil {
		return err
	}

	logger.Infof("Local video deleted content_id=%s", contentID)
	return nil
}
