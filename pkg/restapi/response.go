package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vod-service/pkg/errno"
	"vod-service/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success 成功响应
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:      errno.OK.Code,
		Message:   errno.OK.Message,
		Data:      data,
		RequestID: ctx.GetString("request_id"),
	})
}

// Failed 失败响应，业务错误码映射为 HTTP 状态码；未知错误不暴露细节
func Failed(ctx *gin.Context, err error) {
	code := errno.Code(err)
	status := HTTPStatus(code)

	message := code.Message
	var biz *errno.BizError
	if errors.As(err, &biz) {
		message = biz.PublicMessage()
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed path=%s request_id=%s error=%v", ctx.FullPath(), ctx.GetString("request_id"), err)
		if code == errno.ErrInternalServer {
			message = errno.ErrInternalServer.Message
		}
	}

	ctx.AbortWithStatusJSON(status, Response{
		Code:      code.Code,
		Message:   message,
		RequestID: ctx.GetString("request_id"),
	})
}

// HTTPStatus 错误码到 HTTP 状态码
func HTTPStatus(code *errno.Errno) int {
	switch {
	case code == nil:
		return http.StatusInternalServerError
	case code.Code >= 400 && code.Code < 600:
		return code.Code
	case code == errno.ErrQueueFull:
		return http.StatusServiceUnavailable
	case code == errno.ErrAccessDenied:
		return http.StatusForbidden
	case code == errno.ErrContentNotFound, code == errno.ErrVideoNotReady:
		return http.StatusNotFound
	case code.Code >= 20000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
