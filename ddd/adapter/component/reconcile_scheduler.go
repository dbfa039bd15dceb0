package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appsvc "vod-service/ddd/application/app"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
	"vod-service/pkg/task"
)

type ReconcileSchedulerPlugin struct{}

func (p *ReconcileSchedulerPlugin) Name() string { return "reconcileScheduler" }

func (p *ReconcileSchedulerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := configOf(deps)
	if deps.Roles != nil && !deps.Roles.Reconciler {
		return nil
	}
	if !cfg.Reconciler.Enabled {
		return nil
	}
	return NewReconcileScheduler(appsvc.DefaultCDNApp(), cfg.Reconciler.Schedule, cfg.Reconciler.BatchSize)
}

// Reconciler 轮询未结束的 CDN 视频
type Reconciler interface {
	ReconcilePending(ctx context.Context, limit int) (int, error)
}

// ReconcileScheduler 按 cron 表达式轮询 CDN 状态，作为 webhook 丢失时的兜底
type ReconcileScheduler struct {
	reconciler Reconciler
	schedule   string
	batchSize  int
	timeout    time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReconcileScheduler(reconciler Reconciler, schedule string, batchSize int) *ReconcileScheduler {
	return &ReconcileScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		batchSize:  batchSize,
		timeout:    5 * time.Minute,
	}
}

// Start 只登记后台任务，由 task.StartAll 统一启动
func (s *ReconcileScheduler) Start() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid reconciler schedule %q: %w", s.schedule, err)
	}
	task.Register(&task.FuncTask{TaskName: s.GetName(), StartFunc: s.run, StopFunc: s.halt})
	return nil
}

func (s *ReconcileScheduler) run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	logger.Infof("Reconcile scheduler started schedule=%s batch=%d", s.schedule, s.batchSize)
	return nil
}

func (s *ReconcileScheduler) halt() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	<-c.Stop().Done()
	return nil
}

// RunOnce 执行一轮同步，返回同步成功的数量
func (s *ReconcileScheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	synced, err := s.reconciler.ReconcilePending(ctx, s.batchSize)
	if err != nil {
		logger.Warnf("Reconcile round failed synced=%d error=%v", synced, err)
		return synced
	}
	if synced > 0 {
		logger.Infof("Reconcile round finished synced=%d", synced)
	}
	return synced
}

func (s *ReconcileScheduler) Stop() error { return s.halt() }

func (s *ReconcileScheduler) GetName() string { return "reconcileScheduler" }

// cronLogger 把 cron 内部日志转到全局 logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s error=%v %v", msg, err, keysAndValues)
}
