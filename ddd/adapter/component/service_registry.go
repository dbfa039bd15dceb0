package component

import (
	"fmt"
	"net"
	"strconv"

	"vod-service/pkg/config"
	"vod-service/pkg/manager"
	"vod-service/pkg/registry"
)

type ServiceRegistryPlugin struct{}

func (p *ServiceRegistryPlugin) Name() string { return "serviceRegistry" }

func (p *ServiceRegistryPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := configOf(deps)
	if !cfg.ServiceRegistry.Enabled {
		return nil
	}
	reg, err := registry.NewServiceRegistry(cfg.ServiceRegistry, instanceOf(cfg, deps.Roles))
	if err != nil {
		panic(fmt.Sprintf("create service registry: %v", err))
	}
	return &serviceRegistryComponent{registry: reg}
}

// instanceOf 注册到 etcd 的实例信息，地址使用 register_host
func instanceOf(cfg *config.Config, roles *manager.Roles) registry.Instance {
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host = cfg.Server.Host
	}
	inst := registry.Instance{
		Service:  cfg.ServiceRegistry.ServiceName,
		HTTPAddr: net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)),
		Roles:    roleNames(roles),
	}
	if cfg.GRPCServer.Enabled {
		inst.GRPCAddr = net.JoinHostPort(host, strconv.Itoa(cfg.GRPCServer.Port))
	}
	return inst
}

func roleNames(roles *manager.Roles) []string {
	if roles == nil {
		roles = manager.AllRoles()
	}
	var names []string
	if roles.HTTP {
		names = append(names, "http")
	}
	if roles.Worker {
		names = append(names, "worker")
	}
	if roles.Reconciler {
		names = append(names, "reconciler")
	}
	if roles.Consumer {
		names = append(names, "consumer")
	}
	return names
}

type serviceRegistryComponent struct {
	registry *registry.ServiceRegistry
}

func (c *serviceRegistryComponent) Start() error { return c.registry.Register() }

func (c *serviceRegistryComponent) Stop() error { return c.registry.Deregister() }

func (c *serviceRegistryComponent) GetName() string { return "serviceRegistry" }
