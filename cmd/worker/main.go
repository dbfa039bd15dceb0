package main

import (
	"os"

	"vod-service/app"
	"vod-service/pkg/manager"
)

// 只跑转码 Worker 和上传事件消费者，HTTP 仅暴露探活、指标与 Worker 统计
func main() {
	roles := &manager.Roles{Worker: true, Consumer: true}
	cmd := app.NewCommand("vod-worker", "Local transcode worker", roles)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
