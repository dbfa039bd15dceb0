package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vod-service/pkg/config"
)

func TestInstanceKey(t *testing.T) {
	assert.Equal(t, "/services/vod-service/abc", InstanceKey("vod-service", "abc"))
}

func TestNewServiceRegistry_RequiresEndpoints(t *testing.T) {
	_, err := NewServiceRegistry(config.ServiceRegistryConfig{ServiceName: "vod-service"}, Instance{})
	assert.Error(t, err)
}
