package main

import (
	"os"

	"vod-service/app"
	"vod-service/pkg/manager"
)

// 只跑 CDN 状态轮询
func main() {
	roles := &manager.Roles{Reconciler: true}
	cmd := app.NewCommand("vod-scheduler", "CDN encoding status reconciler", roles)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
