package cqe

import (
	"strings"

	"vod-service/ddd/domain/gateway"
	"vod-service/pkg/errno"
)

// EnqueueTranscodeReq 提交本地转码
type EnqueueTranscodeReq struct {
	ContentID  string `json:"-"`
	SourcePath string `json:"source_path"`
	Filename   string `json:"filename"`
}

func (req *EnqueueTranscodeReq) Validate() error {
	req.ContentID = strings.TrimSpace(req.ContentID)
	req.SourcePath = strings.TrimSpace(req.SourcePath)
	if req.ContentID == "" {
		return errno.NewBizError(errno.ErrContentIDRequired, nil)
	}
	return nil
}

// UploadEvent 上传服务发出的 Kafka 消息
type UploadEvent struct {
	ContentID  string `json:"content_id"`
	SourcePath string `json:"source_path"`
	Filename   string `json:"filename"`
}

// ToEnqueueReq 转换为转码请求
func (e *UploadEvent) ToEnqueueReq() *EnqueueTranscodeReq {
	return &EnqueueTranscodeReq{ContentID: e.ContentID, SourcePath: e.SourcePath, Filename: e.Filename}
}

// Webhook 事件类型
const (
	WebhookEncodingCompleted = "encoding.completed"
	WebhookEncodingFailed    = "encoding.failed"
	WebhookEncodingProgress  = "encoding.progress"
)

// WebhookEvent 外部编码服务回调
type WebhookEvent struct {
	Event       string                    `json:"event"`
	VideoID     string                    `json:"video_id"`
	Status      string                    `json:"status"`
	Renditions  []gateway.RemoteRendition `json:"renditions"`
	Duration    float64                   `json:"duration"`
	ManifestURL string                    `json:"manifest_url"`
	PosterURL   string                    `json:"poster_url"`
	Screenshots []string                  `json:"screenshots"`
	TotalSize   int64                     `json:"total_size"`
}

// Remote 以远端视频的形式复用状态映射逻辑
func (e *WebhookEvent) Remote() *gateway.RemoteVideo {
	return &gateway.RemoteVideo{
		ID:          e.VideoID,
		Status:      e.Status,
		Renditions:  e.Renditions,
		Duration:    e.Duration,
		ManifestURL: e.ManifestURL,
		PosterURL:   e.PosterURL,
		Screenshots: e.Screenshots,
		TotalSize:   e.TotalSize,
	}
}
