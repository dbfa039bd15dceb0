package http

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"vod-service/ddd/application/app"
	"vod-service/ddd/application/dto"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
)

// SignatureHeader 回调签名头，值为 hex(HMAC-SHA256(body))
const SignatureHeader = "X-Signature"

const maxWebhookBody = 1 << 20

var (
	singleWebhookController *WebhookController
	onceWebhookController   sync.Once
)

type WebhookControllerPlugin struct{}

func (p *WebhookControllerPlugin) Name() string { return "webhookController" }

func (p *WebhookControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if !httpEnabled(deps) {
		return nil
	}
	onceWebhookController.Do(func() {
		singleWebhookController = NewWebhookController(app.DefaultCDNApp())
	})
	return singleWebhookController
}

// WebhookController 接收编码服务回调，始终返回 200，避免对方无限重试
type WebhookController struct {
	cdnApp app.CDNApp
}

func NewWebhookController(cdnApp app.CDNApp) *WebhookController {
	return &WebhookController{cdnApp: cdnApp}
}

func (w *WebhookController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/webhooks/encoding", w.Encoding)
}

func (w *WebhookController) Encoding(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Warnf("Read webhook body failed: %v", err)
		c.JSON(http.StatusOK, &dto.WebhookAckDTO{Received: true, Message: "unreadable body"})
		return
	}
	// 已确认收到的事件必须写完，调用方断开连接不取消
	ctx := context.WithoutCancel(c.Request.Context())
	ack := w.cdnApp.HandleWebhook(ctx, body, c.GetHeader(SignatureHeader))
	c.JSON(http.StatusOK, ack)
}
