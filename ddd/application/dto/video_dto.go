package dto

// VideoStatusDTO 编码状态，本地与 CDN 两条链路共用
type VideoStatusDTO struct {
	ContentID          string   `json:"content_id"`
	ProviderAssetID    string   `json:"provider_asset_id,omitempty"`
	Status             string   `json:"status"`
	AvailableQualities []string `json:"available_qualities"`
	Progress           *int     `json:"progress,omitempty"`
	ThumbnailURL       string   `json:"thumbnail_url,omitempty"`
	Duration           *int     `json:"duration,omitempty"`
}

// EnqueueResultDTO 提交转码任务的结果
type EnqueueResultDTO struct {
	JobID string `json:"job_id"`
}

// UploadCredentialsDTO 客户端直传到 CDN 的凭证
type UploadCredentialsDTO struct {
	UploadURL       string `json:"upload_url"`
	Token           string `json:"token"`
	Expires         int64  `json:"expires"`
	ProviderAssetID string `json:"provider_asset_id"`
}

// StreamGrantDTO 播放授权
type StreamGrantDTO struct {
	StreamURL          string   `json:"stream_url"`
	ExpiresAt          string   `json:"expires_at"`
	MaxQuality         string   `json:"max_quality"`
	AvailableQualities []string `json:"available_qualities"`
	ThumbnailURLs      []string `json:"thumbnail_urls"`
	Duration           int      `json:"duration"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ContentType        string   `json:"content_type"`
	AccessType         string   `json:"access_type"`
}

// WebhookAckDTO webhook 一律以 200 返回
type WebhookAckDTO struct {
	Received bool   `json:"received"`
	Message  string `json:"message"`
}

// IntPtr 可选数字字段
func IntPtr(v int) *int {
	return &v
}

// PositiveIntPtr 0 视为未知
func PositiveIntPtr(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
