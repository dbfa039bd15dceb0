package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vod-service/ddd/domain/vo"
	"vod-service/pkg/config"
	"vod-service/pkg/manager"
	"vod-service/pkg/middleware"
	"vod-service/pkg/observability"
)

const apiPrefix = "/api/v1"

// 管理接口允许的角色
var managerRoles = []string{"admin", "moderator"}

func init() {
	manager.RegisterControllerPlugin(&SystemControllerPlugin{})
	manager.RegisterControllerPlugin(&VideoControllerPlugin{})
	manager.RegisterControllerPlugin(&WebhookControllerPlugin{})
	manager.RegisterControllerPlugin(&WorkerControllerPlugin{})
}

func httpEnabled(deps *manager.Dependencies) bool {
	return deps.Roles == nil || deps.Roles.HTTP
}

func configOf(deps *manager.Dependencies) *config.Config {
	if deps.Config != nil {
		return deps.Config
	}
	return config.GetGlobalConfig()
}

// verifierOf 按配置构建 JWT 校验器
func verifierOf(cfg *config.Config) *middleware.TokenVerifier {
	return middleware.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
}

// callerOf 取 OptionalAuth 写入的身份，匿名返回 nil
func callerOf(c *gin.Context) *vo.Caller {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return nil
	}
	return &vo.Caller{UserID: identity.UserID, Role: identity.Role}
}

// SystemControllerPlugin 健康检查与指标
type SystemControllerPlugin struct{}

func (p *SystemControllerPlugin) Name() string { return "systemController" }

// 所有角色的进程都暴露探活与指标
func (p *SystemControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	return &SystemController{metrics: configOf(deps).Observability.MetricsEnabled}
}

type SystemController struct {
	metrics bool
}

func (s *SystemController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "vod-service",
		})
	})
	if s.metrics {
		engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))
	}
}
