package grpc

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"vod-service/pkg/config"
	"vod-service/pkg/logger"
)

// ServiceName 健康检查里登记的服务名
const ServiceName = "vod.VideoService"

// HealthServer 供负载均衡与服务发现探活的 gRPC 服务
type HealthServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

func NewHealthServer(cfg config.GRPCServerConfig) *HealthServer {
	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	return &HealthServer{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		server: server,
		health: hs,
	}
}

// Listen 绑定端口，失败时立即返回，便于启动阶段报错
func (s *HealthServer) Listen() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", s.addr, err)
	}
	s.lis = lis
	return nil
}

// Addr 实际监听地址
func (s *HealthServer) Addr() string {
	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.addr
}

// Serve 阻塞直到 Stop
func (s *HealthServer) Serve() error {
	if s.lis == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	logger.Infof("gRPC server started address=%s", s.Addr())
	if err := s.server.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop 先标记 NOT_SERVING 再优雅关闭
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
	logger.Infof("gRPC server stopped address=%s", s.Addr())
}
