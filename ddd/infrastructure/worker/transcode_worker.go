package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/service"
	"vod-service/pkg/logger"
	"vod-service/pkg/observability"
)

// TranscodeWorker 转码工作器接口
type TranscodeWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止工作器，等待执行中的任务结束
	Stop() error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	WorkerID         string
	Concurrency      int
	ProcessedTasks   uint64
	SuccessfulTasks  uint64
	FailedTasks      uint64
	CurrentlyRunning int
	StartTime        time.Time
	LastTaskTime     time.Time
}

// Options 工作器参数
type Options struct {
	WorkerID    string
	Concurrency int
	PollTimeout time.Duration
	// GracePeriod Stop 时等待执行中任务的上限，超时后取消任务上下文
	GracePeriod time.Duration
}

// transcodeWorkerImpl 转码工作器实现
type transcodeWorkerImpl struct {
	opts     Options
	queue    port.JobQueue
	pipeline service.TranscodePipeline
	sink     port.ProgressSink

	running bool
	cancel  context.CancelFunc
	stats   WorkerStats
	mu      sync.RWMutex
	wg      sync.WaitGroup

	// 停止取任务与取消执行中任务分开控制
	jobCtx    context.Context
	jobCancel context.CancelFunc
}

// NewTranscodeWorker 创建转码工作器
func NewTranscodeWorker(queue port.JobQueue, pipeline service.TranscodePipeline, sink port.ProgressSink, opts Options) TranscodeWorker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.WorkerID == "" {
		opts.WorkerID = "transcode-worker"
	}
	return &transcodeWorkerImpl{
		opts:     opts,
		queue:    queue,
		pipeline: pipeline,
		sink:     sink,
		stats: WorkerStats{
			WorkerID:    opts.WorkerID,
			Concurrency: opts.Concurrency,
			StartTime:   time.Now(),
		},
	}
}

// Start 启动工作器
func (w *transcodeWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.opts.WorkerID)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	// 任务上下文不随父上下文取消，由 Stop 在宽限期后取消
	w.jobCtx, w.jobCancel = context.WithCancel(context.WithoutCancel(ctx))
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("Starting transcode worker id=%s concurrency=%d", w.opts.WorkerID, w.opts.Concurrency)

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(loopCtx, i)
	}
	return nil
}

// Stop 停止工作器
func (w *transcodeWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel, jobCancel := w.cancel, w.jobCancel
	w.mu.Unlock()

	logger.Infof("Stopping transcode worker id=%s", w.opts.WorkerID)
	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	if w.opts.GracePeriod > 0 {
		select {
		case <-done:
		case <-time.After(w.opts.GracePeriod):
			logger.Warnf("Transcode worker grace period exceeded, cancelling running jobs id=%s", w.opts.WorkerID)
			jobCancel()
			<-done
		}
	} else {
		<-done
	}
	jobCancel()

	logger.Infof("Transcode worker stopped id=%s", w.opts.WorkerID)
	return nil
}

// IsRunning 检查工作器是否运行中
func (w *transcodeWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats 获取工作器统计信息
func (w *transcodeWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// workerLoop 工作器主循环
func (w *transcodeWorkerImpl) workerLoop(ctx context.Context, slot int) {
	defer w.wg.Done()

	logger.Debugf("Worker slot started id=%s slot=%d", w.opts.WorkerID, slot)
	defer logger.Debugf("Worker slot stopped id=%s slot=%d", w.opts.WorkerID, slot)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, port.ErrQueueClosed) {
				return
			}
			logger.Errorf("Worker failed to dequeue job id=%s slot=%d error=%v", w.opts.WorkerID, slot, err)
			// 避免忙等待
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.processJob(job, slot)
	}
}

// processJob 执行单个任务，结果写回队列
func (w *transcodeWorkerImpl) processJob(job *entity.TranscodeJob, slot int) {
	ctx := w.jobCtx
	logger.Infof("Worker processing job id=%s slot=%d job_id=%s content_id=%s attempt=%d", w.opts.WorkerID, slot, job.ID, job.ContentID, job.Attempt)

	w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning++
		stats.LastTaskTime = time.Now()
	})
	observability.ActiveTranscodeJobs.Inc()
	started := time.Now()

	defer func() {
		observability.ActiveTranscodeJobs.Dec()
		observability.TranscodeJobDuration.Observe(time.Since(started).Seconds())
		w.updateStats(func(stats *WorkerStats) {
			stats.CurrentlyRunning--
			stats.ProcessedTasks++
		})
	}()

	report := func(p int) {
		if w.sink == nil {
			return
		}
		if err := w.sink.SaveProgress(ctx, job, p); err != nil {
			logger.Warnf("Save job progress failed job_id=%s progress=%d error=%v", job.ID, p, err)
		}
	}

	jobErr := w.runPipeline(ctx, job, report)

	// 队列状态必须落地，即使任务上下文已取消
	finishCtx := context.WithoutCancel(ctx)
	if err := w.queue.Complete(finishCtx, job.ID, jobErr); err != nil {
		logger.Errorf("Complete job failed job_id=%s error=%v", job.ID, err)
	}
	if w.sink != nil {
		_ = w.sink.SaveResult(finishCtx, job, jobErr)
	}

	if jobErr != nil {
		logger.Error("Transcode job failed", map[string]interface{}{
			"worker_id":  w.opts.WorkerID,
			"job_id":     job.ID,
			"content_id": job.ContentID,
			"attempt":    job.Attempt,
			"error":      jobErr.Error(),
		})
		observability.TranscodeJobsTotal.WithLabelValues("failed").Inc()
		w.updateStats(func(stats *WorkerStats) { stats.FailedTasks++ })
		return
	}

	logger.Infof("Transcode job completed job_id=%s content_id=%s elapsed=%s", job.ID, job.ContentID, time.Since(started).Round(time.Millisecond))
	observability.TranscodeJobsTotal.WithLabelValues("completed").Inc()
	w.updateStats(func(stats *WorkerStats) { stats.SuccessfulTasks++ })
}

// runPipeline panic 也按失败处理，避免 Worker 协程退出
func (w *transcodeWorkerImpl) runPipeline(ctx context.Context, job *entity.TranscodeJob, report port.ProgressCallback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transcode panic: %v", r)
		}
	}()
	return w.pipeline.Run(ctx, job, report)
}

// updateStats 更新统计信息
func (w *transcodeWorkerImpl) updateStats(updateFunc func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	updateFunc(&w.stats)
}
