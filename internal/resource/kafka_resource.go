package resource

import (
	"vod-service/pkg/config"
	"vod-service/pkg/kafka"
	"vod-service/pkg/manager"
)

// KafkaResource 共享 Kafka 客户端的生命周期
type KafkaResource struct{}

func (r *KafkaResource) MustOpen() { kafka.DefaultClient().MustOpen() }

func (r *KafkaResource) Close() { kafka.DefaultClient().Close() }

// KafkaResourcePlugin kafka.enabled 关闭时不创建
type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafkaResource" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource {
	cfg := config.GetGlobalConfig()
	if cfg == nil || !cfg.Kafka.Enabled {
		return nil
	}
	return &KafkaResource{}
}
