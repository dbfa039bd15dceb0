package progress

import (
	"context"

	"vod-service/ddd/domain/gateway"
	"vod-service/pkg/kafka"
)

// KafkaPublisher 把进度事件写入 Kafka，key 为 content_id，保证同一视频的事件有序
type KafkaPublisher struct {
	client *kafka.Client
	topic  string
}

// NewKafkaPublisher client 未打开或 topic 为空时返回 nil，调用方按未配置处理
func NewKafkaPublisher(client *kafka.Client, topic string) gateway.EventPublisher {
	if client == nil || !client.Opened() || topic == "" {
		return nil
	}
	return &KafkaPublisher{client: client, topic: topic}
}

func (p *KafkaPublisher) PublishProgress(ctx context.Context, event gateway.ProgressEvent) error {
	return p.client.ProduceJSON(ctx, p.topic, event.ContentID, event)
}
