package component

import (
	"vod-service/pkg/config"
	"vod-service/pkg/manager"
)

func init() {
	manager.RegisterComponentPlugin(&UploadEventConsumerPlugin{})
	manager.RegisterComponentPlugin(&ReconcileSchedulerPlugin{})
	manager.RegisterComponentPlugin(&ServiceRegistryPlugin{})
}

func configOf(deps *manager.Dependencies) *config.Config {
	if deps != nil && deps.Config != nil {
		return deps.Config
	}
	return config.GetGlobalConfig()
}
