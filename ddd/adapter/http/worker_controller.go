package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"vod-service/ddd/application/app"
	"vod-service/ddd/application/dto"
	"vod-service/ddd/infrastructure/worker"
	"vod-service/pkg/manager"
	"vod-service/pkg/restapi"
)

type WorkerControllerPlugin struct{}

func (p *WorkerControllerPlugin) Name() string { return "workerController" }

func (p *WorkerControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if !httpEnabled(deps) && !deps.Roles.Worker {
		return nil
	}
	return NewWorkerController(app.DefaultTranscodeApp(), worker.Snapshot)
}

// SnapshotFunc 读取本节点 Worker 统计
type SnapshotFunc func(ctx context.Context) (worker.WorkerStats, worker.HostStats, bool)

// WorkerController 本节点转码 Worker 的运行情况
type WorkerController struct {
	transcodeApp app.TranscodeApp
	snapshot     SnapshotFunc
}

func NewWorkerController(transcodeApp app.TranscodeApp, snapshot SnapshotFunc) *WorkerController {
	return &WorkerController{transcodeApp: transcodeApp, snapshot: snapshot}
}

func (w *WorkerController) RegisterRoutes(engine *gin.Engine) {
	engine.GET(apiPrefix+"/worker/stats", w.Stats)
}

func (w *WorkerController) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, host, enabled := w.snapshot(ctx)

	out := &dto.WorkerStatsDTO{
		Enabled:          enabled,
		WorkerID:         stats.WorkerID,
		Concurrency:      stats.Concurrency,
		ProcessedTasks:   stats.ProcessedTasks,
		SuccessfulTasks:  stats.SuccessfulTasks,
		FailedTasks:      stats.FailedTasks,
		CurrentlyRunning: stats.CurrentlyRunning,
		StartTime:        stats.StartTime,
		LastTaskTime:     stats.LastTaskTime,
		ActiveJobs:       []dto.ActiveJobDTO{},
		Host: dto.HostStatsDTO{
			NumCPU:            host.NumCPU,
			CPUPercent:        host.CPUPercent,
			MemoryTotal:       host.MemoryTotal,
			MemoryUsedPercent: host.MemoryUsedPercent,
		},
	}

	jobs, err := w.transcodeApp.ActiveJobs(ctx)
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	for _, job := range jobs {
		out.ActiveJobs = append(out.ActiveJobs, dto.ActiveJobDTO{
			JobID:     job.ID,
			ContentID: job.ContentID,
			Progress:  job.Progress,
			Attempt:   job.Attempt,
			StartedAt: job.StartedAt,
		})
	}
	restapi.Success(c, out)
}
