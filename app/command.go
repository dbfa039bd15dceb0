package app

import (
	"github.com/spf13/cobra"

	"vod-service/pkg/manager"
)

// NewCommand 构建入口命令，roles 决定默认启用的角色
func NewCommand(name, short string, roles *manager.Roles) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           name,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(Options{Name: name, ConfigPath: configPath, Roles: roles})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file, defaults to CONFIG_PATH or configs/config.<CONFIG_ENV>.yaml")
	cmd.Flags().BoolVar(&roles.HTTP, "http", roles.HTTP, "serve the public HTTP API")
	cmd.Flags().BoolVar(&roles.Worker, "worker", roles.Worker, "run local transcode workers")
	cmd.Flags().BoolVar(&roles.Reconciler, "reconciler", roles.Reconciler, "poll the CDN for unfinished videos")
	cmd.Flags().BoolVar(&roles.Consumer, "consumer", roles.Consumer, "consume upload events from Kafka")
	return cmd
}
