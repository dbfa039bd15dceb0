package resource

import (
	"strings"
	"sync"

	"vod-service/ddd/domain/port"
	"vod-service/ddd/infrastructure/queue"
	"vod-service/pkg/assert"
	"vod-service/pkg/config"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
)

var (
	transcodeQueueOnce      sync.Once
	singletonTranscodeQueue *TranscodeQueueResource
)

// TranscodeQueueResource 转码任务队列，queue.driver 选择 redis 或 memory
type TranscodeQueueResource struct {
	queue port.JobQueue
}

// DefaultTranscodeQueueResource 获取队列资源单例
func DefaultTranscodeQueueResource() *TranscodeQueueResource {
	assert.NotCircular()
	transcodeQueueOnce.Do(func() {
		singletonTranscodeQueue = &TranscodeQueueResource{}
	})
	assert.NotNil(singletonTranscodeQueue)
	return singletonTranscodeQueue
}

func (r *TranscodeQueueResource) MustOpen() {
	if r.queue != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before TranscodeQueueResource")
	}
	r.queue = NewJobQueue(&cfg.Queue)
	logger.Infof("Transcode queue opened driver=%s prefix=%s", cfg.Queue.Driver, cfg.Queue.KeyPrefix)
}

// NewJobQueue 按配置创建队列，redis 需要先打开 RedisResource
func NewJobQueue(cfg *config.QueueConfig) port.JobQueue {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		return queue.NewMemoryJobQueue(cfg.Capacity)
	case "", "redis":
		client := DefaultRedisResource().Client()
		if client == nil {
			panic("redis queue requires an opened redis resource")
		}
		return queue.NewRedisJobQueue(client, cfg.KeyPrefix)
	default:
		panic("unsupported queue driver: " + cfg.Driver)
	}
}

// Queue 共享的任务队列
func (r *TranscodeQueueResource) Queue() port.JobQueue {
	return r.queue
}

func (r *TranscodeQueueResource) Close() {
	if r.queue != nil {
		_ = r.queue.Close()
		r.queue = nil
	}
}

// TranscodeQueueResourcePlugin 队列资源插件
type TranscodeQueueResourcePlugin struct{}

func (p *TranscodeQueueResourcePlugin) Name() string { return "transcodeQueueResource" }

func (p *TranscodeQueueResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultTranscodeQueueResource()
}
