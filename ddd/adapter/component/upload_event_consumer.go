package component

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	appsvc "vod-service/ddd/application/app"
	"vod-service/ddd/application/cqe"
	"vod-service/ddd/application/dto"
	"vod-service/pkg/errno"
	pkgkafka "vod-service/pkg/kafka"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
)

type UploadEventConsumerPlugin struct{}

func (p *UploadEventConsumerPlugin) Name() string { return "uploadEventConsumer" }

func (p *UploadEventConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := configOf(deps)
	if deps.Roles != nil && !deps.Roles.Consumer {
		return nil
	}
	if !cfg.Kafka.Enabled {
		return nil
	}
	client := pkgkafka.DefaultClient()
	if !client.Opened() {
		panic("upload event consumer requires an opened kafka client")
	}
	return &uploadEventConsumer{
		enqueuer:            appsvc.DefaultTranscodeApp(),
		topic:               cfg.Kafka.Topics.UploadEvents,
		commitOnDecodeError: cfg.Kafka.CommitOnDecodeError,
		newReader: func() messageReader {
			return client.Reader(cfg.Kafka.Topics.UploadEvents, cfg.Kafka.GroupID)
		},
	}
}

// Enqueuer 消费者只依赖提交转码
type Enqueuer interface {
	Enqueue(ctx context.Context, req *cqe.EnqueueTranscodeReq) (*dto.EnqueueResultDTO, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// uploadEventConsumer 上传完成事件 -> 本地转码任务，处理成功后才提交 offset
type uploadEventConsumer struct {
	enqueuer            Enqueuer
	topic               string
	commitOnDecodeError bool
	newReader           func() messageReader

	cancel context.CancelFunc
	done   sync.WaitGroup
}

func (c *uploadEventConsumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	reader := c.newReader()
	c.done.Add(1)
	go func() {
		defer c.done.Done()
		defer reader.Close()
		logger.Infof("Kafka consumer started topic=%s", c.topic)
		c.run(ctx, reader)
	}()
	return nil
}

func (c *uploadEventConsumer) run(ctx context.Context, reader messageReader) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				logger.Debug("Kafka reader EOF")
			} else {
				logger.Warnf("Kafka read error topic=%s error=%v", c.topic, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !c.handle(ctx, msg) {
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Warnf("Kafka commit failed topic=%s offset=%d error=%v", c.topic, msg.Offset, err)
		}
	}
}

// handle 返回是否提交 offset；可重试的失败不提交，重平衡后重新投递
func (c *uploadEventConsumer) handle(ctx context.Context, msg kafka.Message) bool {
	var event cqe.UploadEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Warnf("Kafka message unmarshal error offset=%d error=%v", msg.Offset, err)
		return c.commitOnDecodeError
	}
	logger.Infof("Upload event received content_id=%s", event.ContentID)

	result, err := c.enqueuer.Enqueue(ctx, event.ToEnqueueReq())
	switch {
	case err == nil:
		logger.Infof("Upload event enqueued content_id=%s job_id=%s", event.ContentID, result.JobID)
		return true
	case errno.IsInvalid(err), errno.IsNotFound(err), errors.Is(err, errno.ErrContentIDRequired):
		// 数据本身有问题，重投也不会成功
		logger.Warnf("Upload event dropped content_id=%s error=%v", event.ContentID, err)
		return true
	default:
		logger.Errorf("Enqueue from upload event failed content_id=%s error=%v", event.ContentID, err)
		return false
	}
}

func (c *uploadEventConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.done.Wait()
	return nil
}

func (c *uploadEventConsumer) GetName() string { return "uploadEventConsumer" }
