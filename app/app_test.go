package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/pkg/config"
	"vod-service/pkg/manager"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_ENV", "")
	assert.Equal(t, "configs/config.dev.yaml", resolveConfigPath())

	t.Setenv("CONFIG_ENV", "Production")
	assert.Equal(t, "configs/config_prod.yaml", resolveConfigPath())

	t.Setenv("CONFIG_ENV", "staging")
	assert.Equal(t, "configs/config.staging.yaml", resolveConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/vod.yaml")
	assert.Equal(t, "/etc/vod.yaml", resolveConfigPath())
}

func TestCheckFFmpegMissingBinary(t *testing.T) {
	cfg := config.Default()
	cfg.Transcode.FFmpeg.BinaryPath = "/nonexistent/ffmpeg-binary"
	assert.Error(t, checkFFmpeg(cfg))
}

func TestNewCommandRoleFlags(t *testing.T) {
	roles := manager.AllRoles()
	cmd := NewCommand("vod-service", "test", roles)
	require.NoError(t, cmd.ParseFlags([]string{"--worker=false", "--consumer=false", "-c", "x.yaml"}))

	assert.True(t, roles.HTTP)
	assert.False(t, roles.Worker)
	assert.True(t, roles.Reconciler)
	assert.False(t, roles.Consumer)
	assert.Equal(t, "x.yaml", cmd.Flag("config").Value.String())
}
