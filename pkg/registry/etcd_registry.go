package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"vod-service/pkg/config"
	"vod-service/pkg/logger"
)

// Instance 写入 etcd 的实例信息
type Instance struct {
	ID        string   `json:"id"`
	Service   string   `json:"service"`
	HTTPAddr  string   `json:"http_addr"`
	GRPCAddr  string   `json:"grpc_addr,omitempty"`
	Roles     []string `json:"roles"`
	Hostname  string   `json:"hostname"`
	StartedAt int64    `json:"started_at"`
}

// ServiceRegistry registers this instance into etcd under a lease.
type ServiceRegistry struct {
	client   *clientv3.Client
	instance Instance
	ttl      int64
	leaseID  clientv3.LeaseID
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServiceRegistry creates the etcd client; registration happens in Register.
func NewServiceRegistry(cfg config.ServiceRegistryConfig, instance Instance) (*ServiceRegistry, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("service registry endpoints are empty")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	if instance.ID == "" {
		instance.ID = cfg.ServiceID
	}
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if instance.Service == "" {
		instance.Service = cfg.ServiceName
	}
	instance.Hostname, _ = os.Hostname()
	instance.StartedAt = time.Now().Unix()

	ttl := int64(cfg.TTL.Seconds())
	if ttl <= 0 {
		ttl = 30
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:   client,
		instance: instance,
		ttl:      ttl,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Key returns the etcd key of this instance.
func (r *ServiceRegistry) Key() string {
	return InstanceKey(r.instance.Service, r.instance.ID)
}

// InstanceKey builds /services/{service}/{id}.
func InstanceKey(service, id string) string {
	return fmt.Sprintf("/services/%s/%s", service, id)
}

// Register registers service instance and keeps the lease alive.
func (r *ServiceRegistry) Register() error {
	if err := r.put(); err != nil {
		return err
	}
	go r.keepAlive()
	logger.Infof("Service registered key=%s http=%s", r.Key(), r.instance.HTTPAddr)
	return nil
}

func (r *ServiceRegistry) put() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	value, err := json.Marshal(r.instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}
	if _, err := r.client.Put(r.ctx, r.Key(), string(value), clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// keepAlive 续约，通道关闭（lease 丢失）后重新注册
func (r *ServiceRegistry) keepAlive() {
	for {
		ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
		if err != nil {
			logger.Warnf("Failed to keep alive lease error=%v", err)
			return
		}
		for range ch {
		}
		if r.ctx.Err() != nil {
			return
		}
		logger.Warnf("Keep alive channel closed, re-registering key=%s", r.Key())
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if err := r.put(); err != nil {
			logger.Warnf("Re-register failed key=%s error=%v", r.Key(), err)
		}
	}
}

// Deregister removes service registration.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease error=%v", err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered id=%s", r.instance.ID)
	return nil
}
