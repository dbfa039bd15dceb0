package task

import (
	"context"
	"fmt"
	"sync"

	"vod-service/pkg/logger"
)

// BackgroundTask represents a long-running background process (worker pool, consumer, cron).
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// Manager starts and stops background tasks as a group.
type Manager struct {
	tasks   []BackgroundTask
	started []BackgroundTask
	mu      sync.Mutex
	cancel  context.CancelFunc
}

var defaultManager = NewManager()

// NewManager creates an empty manager; most callers use the package-level default.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a background task; call before StartAll.
func (m *Manager) Register(task BackgroundTask) {
	if task == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// StartAll starts every registered task once. If one fails, the tasks already
// started are stopped again and the error is returned.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	for _, t := range m.tasks {
		if err := t.Start(runCtx); err != nil {
			m.stopStartedLocked()
			cancel()
			m.cancel = nil
			return fmt.Errorf("start background task %s: %w", t.Name(), err)
		}
		m.started = append(m.started, t)
		logger.Infof("Background task started name=%s", t.Name())
	}
	return nil
}

// StopAll stops running tasks in reverse start order.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stopStartedLocked()
}

func (m *Manager) stopStartedLocked() {
	for i := len(m.started) - 1; i >= 0; i-- {
		if err := m.started[i].Stop(); err != nil {
			logger.Warnf("Background task stop failed name=%s error=%v", m.started[i].Name(), err)
		}
	}
	m.started = nil
}

// Register adds a task to the default manager.
func Register(task BackgroundTask) { defaultManager.Register(task) }

// StartAll starts the default manager.
func StartAll(ctx context.Context) error { return defaultManager.StartAll(ctx) }

// StopAll stops the default manager.
func StopAll() { defaultManager.StopAll() }

// FuncTask adapts Start/Stop functions to BackgroundTask.
type FuncTask struct {
	TaskName  string
	StartFunc func(ctx context.Context) error
	StopFunc  func() error
}

func (f *FuncTask) Name() string                    { return f.TaskName }
func (f *FuncTask) Start(ctx context.Context) error { return f.StartFunc(ctx) }
func (f *FuncTask) Stop() error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc()
}
