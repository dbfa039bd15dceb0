package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	vodgrpc "vod-service/ddd/adapter/grpc"
	"vod-service/internal/resource"
	"vod-service/pkg/config"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
	"vod-service/pkg/middleware"
	"vod-service/pkg/observability"
	"vod-service/pkg/task"

	// 导入插件包以触发 init 注册
	_ "vod-service/ddd/adapter/component"
	_ "vod-service/ddd/adapter/http"
	_ "vod-service/ddd/infrastructure/worker"
)

// Options 进程启动参数
type Options struct {
	Name       string
	ConfigPath string
	Roles      *manager.Roles
}

// Run 启动服务并阻塞到收到退出信号
func Run(opts Options) error {
	if opts.Name == "" {
		opts.Name = "vod-service"
	}
	if opts.Roles == nil {
		opts.Roles = manager.AllRoles()
	}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = resolveConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	// 必须在资源初始化之前设置
	config.SetGlobalConfig(cfg)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()

	logger.Info("Service starting", map[string]interface{}{
		"name":       opts.Name,
		"config":     cfgPath,
		"http":       opts.Roles.HTTP,
		"worker":     opts.Roles.Worker,
		"reconciler": opts.Roles.Reconciler,
		"consumer":   opts.Roles.Consumer,
	})

	stopProfiling := startProfiling(opts.Name, cfg)
	defer stopProfiling()

	if opts.Roles.Worker && cfg.Worker.Enabled {
		if err := checkFFmpeg(cfg); err != nil {
			return err
		}
	}

	manager.MustInitResources()
	defer manager.CloseResources()

	deps := &manager.Dependencies{
		DB:     resource.DefaultDatabaseResource().MainDB(),
		Config: cfg,
		Roles:  opts.Roles,
	}

	manager.MustInitComponents(deps)
	defer manager.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := task.StartAll(ctx); err != nil {
		return err
	}
	defer task.StopAll()

	var grpcServer *vodgrpc.HealthServer
	if cfg.GRPCServer.Enabled {
		grpcServer = vodgrpc.NewHealthServer(cfg.GRPCServer)
		if err := grpcServer.Listen(); err != nil {
			return err
		}
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Errorf("gRPC server encountered an error error=%v", err)
			}
		}()
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestContextMiddleware())
	manager.MustInitControllers(deps)
	manager.RegisterAllRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Infof("HTTP server started addr=%s", server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Infof("Received signal %s, shutting down", sig)
	case err := <-serveErr:
		logger.Errorf("HTTP server failed error=%v", err)
	}

	if grpcServer != nil {
		grpcServer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP server forced to close error=%v", err)
	}
	// 其余按 defer 逆序：后台任务 -> 组件 -> 资源 -> 日志
	return nil
}

func startProfiling(name string, cfg *config.Config) func() {
	if cfg.Observability.PyroscopeEnabled && cfg.Observability.PyroscopeServer != "" {
		return observability.StartProfilingWith(name, cfg.Observability.PyroscopeServer)
	}
	return observability.StartProfiling(name)
}

// checkFFmpeg 启动阶段确认 ffmpeg 可用
func checkFFmpeg(cfg *config.Config) error {
	bin := strings.TrimSpace(cfg.Transcode.FFmpeg.BinaryPath)
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found, install it or set transcode.ffmpeg.binary_path: %w", bin, err)
	}
	if strings.Contains(strings.ToLower(cfg.Transcode.FFmpeg.VideoCodec), "nvenc") {
		out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
		if err == nil && !strings.Contains(strings.ToLower(string(out)), "nvenc") {
			logger.Warnf("NVENC encoder not detected in FFmpeg, codec=%s", cfg.Transcode.FFmpeg.VideoCodec)
		}
	}
	return nil
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
