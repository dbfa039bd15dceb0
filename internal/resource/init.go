package resource

import "vod-service/pkg/manager"

func init() {
	// 注册资源插件，按名称顺序打开，队列依赖 Redis 所以排在最后
	manager.RegisterResourcePlugin(&DatabaseResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&S3ResourcePlugin{})
	manager.RegisterResourcePlugin(&TranscodeQueueResourcePlugin{})
}
