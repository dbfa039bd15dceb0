package main

import (
	"os"

	"vod-service/app"
	"vod-service/pkg/manager"
)

func main() {
	cmd := app.NewCommand("vod-service", "Video encoding and delivery service", manager.AllRoles())
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
