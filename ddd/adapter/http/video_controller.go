package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"vod-service/ddd/application/app"
	"vod-service/ddd/application/cqe"
	"vod-service/pkg/errno"
	"vod-service/pkg/manager"
	"vod-service/pkg/middleware"
	"vod-service/pkg/restapi"
)

var (
	singleVideoController *VideoController
	onceVideoController   sync.Once
)

// VideoControllerPlugin 视频编码与播放接口
type VideoControllerPlugin struct{}

func (p *VideoControllerPlugin) Name() string { return "videoController" }

func (p *VideoControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if !httpEnabled(deps) {
		return nil
	}
	onceVideoController.Do(func() {
		singleVideoController = NewVideoController(
			app.DefaultTranscodeApp(),
			app.DefaultCDNApp(),
			app.DefaultStreamApp(),
			verifierOf(configOf(deps)),
		)
	})
	return singleVideoController
}

type VideoController struct {
	transcodeApp app.TranscodeApp
	cdnApp       app.CDNApp
	streamApp    app.StreamApp
	verifier     *middleware.TokenVerifier
}

func NewVideoController(transcodeApp app.TranscodeApp, cdnApp app.CDNApp, streamApp app.StreamApp, verifier *middleware.TokenVerifier) *VideoController {
	return &VideoController{
		transcodeApp: transcodeApp,
		cdnApp:       cdnApp,
		streamApp:    streamApp,
		verifier:     verifier,
	}
}

func (v *VideoController) RegisterRoutes(engine *gin.Engine) {
	videos := engine.Group(apiPrefix + "/videos")
	videos.Use(middleware.OptionalAuth(v.verifier))
	managers := middleware.RequireRoles(managerRoles...)
	{
		videos.POST("/:content_id/transcode", managers, v.Transcode)
		videos.GET("/:content_id/status", v.GetStatus)
		videos.DELETE("/:content_id", managers, v.Delete)
		videos.POST("/:content_id/upload-credentials", managers, v.UploadCredentials)
		videos.POST("/:content_id/sync", v.Sync)
		videos.GET("/:content_id/stream", v.Stream)
	}
}

// Transcode 提交本地转码
func (v *VideoController) Transcode(c *gin.Context) {
	req := &cqe.EnqueueTranscodeReq{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			restapi.Failed(c, errno.InvalidRequest("invalid request body: %v", err))
			return
		}
	}
	req.ContentID = c.Param("content_id")

	result, err := v.transcodeApp.Enqueue(c.Request.Context(), req)
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, result)
}

func (v *VideoController) GetStatus(c *gin.Context) {
	status, err := v.transcodeApp.GetStatus(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, status)
}

func (v *VideoController) Delete(c *gin.Context) {
	if err := v.transcodeApp.DeleteVideo(c.Request.Context(), c.Param("content_id")); err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, gin.H{"deleted": true})
}

// UploadCredentials 创建 CDN 远端视频并返回直传凭证
func (v *VideoController) UploadCredentials(c *gin.Context) {
	creds, err := v.cdnApp.RequestUploadCredentials(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, creds)
}

func (v *VideoController) Sync(c *gin.Context) {
	status, err := v.cdnApp.SyncStatus(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, status)
}

// Stream 签发播放地址，匿名调用只能访问免费内容
func (v *VideoController) Stream(c *gin.Context) {
	grant, err := v.streamApp.GetStreamURL(c.Request.Context(), c.Param("content_id"), callerOf(c))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, grant)
}
