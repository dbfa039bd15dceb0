package worker

import (
	"context"
	"fmt"

	"vod-service/ddd/domain/service"
	"vod-service/ddd/infrastructure/database/persistence"
	"vod-service/ddd/infrastructure/executor"
	"vod-service/ddd/infrastructure/progress"
	"vod-service/internal/resource"
	"vod-service/pkg/config"
	"vod-service/pkg/kafka"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
	"vod-service/pkg/task"
)

func init() {
	manager.RegisterComponentPlugin(&TranscodeWorkerComponentPlugin{})
}

// TranscodeWorkerComponentPlugin 负责启动转码Worker
type TranscodeWorkerComponentPlugin struct{}

func (p *TranscodeWorkerComponentPlugin) Name() string {
	return "transcodeWorkerComponent"
}

func (p *TranscodeWorkerComponentPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	if deps.Roles != nil && !deps.Roles.Worker {
		return nil
	}
	if !cfg.Worker.Enabled {
		logger.Infof("Transcode worker disabled by config")
		return nil
	}

	blobs := resource.DefaultBlobStore()
	if blobs == nil {
		panic("transcode worker requires an object store, check storage.driver")
	}
	jobQueue := resource.DefaultTranscodeQueueResource().Queue()
	if jobQueue == nil {
		panic("transcode worker requires an opened job queue")
	}

	pipeline := service.NewTranscodePipeline(
		executor.NewFFmpegExecutor(cfg),
		blobs,
		persistence.NewContentRepository(deps.DB),
		persistence.NewRenditionRepository(deps.DB),
		service.PipelineOptions{
			TempDir:           cfg.Transcode.FFmpeg.TempDir,
			SegmentSeconds:    cfg.Transcode.SegmentSeconds,
			ThumbnailAt:       cfg.Transcode.ThumbnailAt,
			UploadConcurrency: cfg.Storage.UploadConcurrency,
		},
	)
	// 进度事件发布到 Kafka，未启用时只写队列
	publisher := progress.NewKafkaPublisher(kafka.DefaultClient(), cfg.Kafka.Topics.TranscodeProgress)
	sink := progress.NewQueueSink(jobQueue, publisher)

	w := NewTranscodeWorker(jobQueue, pipeline, sink, Options{
		WorkerID:    cfg.Worker.WorkerID,
		Concurrency: cfg.Worker.MaxConcurrentTasks,
		PollTimeout: cfg.Queue.PollTimeout,
		GracePeriod: cfg.Worker.ShutdownGracePeriod,
	})
	setDefaultWorker(w)

	return &transcodeWorkerComponent{
		name:   "transcodeWorker",
		worker: w,
	}
}

type transcodeWorkerComponent struct {
	name   string
	worker TranscodeWorker
}

func (c *transcodeWorkerComponent) Start() error {
	if c.worker == nil {
		return fmt.Errorf("transcode worker not initialized")
	}

	// 注册后台任务，让应用启动时统一管理
	task.Register(&task.FuncTask{TaskName: c.name, StartFunc: c.worker.Start, StopFunc: c.worker.Stop})
	logger.Infof("Transcode worker component registered background task name=%s", c.name)
	return nil
}

func (c *transcodeWorkerComponent) Stop() error {
	// 背景任务由 task.Manager 控制停止，这里保持幂等
	if err := c.worker.Stop(); err != nil {
		return err
	}
	logger.Infof("Transcode worker component stopped name=%s", c.name)
	return nil
}

func (c *transcodeWorkerComponent) GetName() string {
	return c.name
}

var defaultWorker TranscodeWorker

func setDefaultWorker(w TranscodeWorker) { defaultWorker = w }

// DefaultWorker 当前进程的 Worker，未启用时返回 nil
func DefaultWorker() TranscodeWorker { return defaultWorker }

// Snapshot 统计信息与主机资源占用
func Snapshot(ctx context.Context) (WorkerStats, HostStats, bool) {
	w := DefaultWorker()
	if w == nil {
		return WorkerStats{}, SampleHost(ctx), false
	}
	return w.GetStats(), SampleHost(ctx), true
}
