package gateway

import "context"

// RemoteRendition 外部编码服务上的单个清晰度
type RemoteRendition struct {
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

// RemoteVideo 外部编码服务上的视频
type RemoteVideo struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Renditions  []RemoteRendition `json:"renditions"`
	Duration    float64           `json:"duration"`
	ManifestURL string            `json:"manifest_url"`
	PosterURL   string            `json:"poster_url"`
	Screenshots []string          `json:"screenshots"`
	TotalSize   int64             `json:"total_size"`
}

// UploadSession 客户端直传参数
type UploadSession struct {
	UploadURL string `json:"upload_url"`
	Token     string `json:"token"`
	Expires   int64  `json:"expires"`
}

// CDNGateway 外部编码服务。404 返回 NotFound，其余非 2xx 返回 Upstream
type CDNGateway interface {
	Configured() bool
	CreateVideo(ctx context.Context, name string) (*RemoteVideo, error)
	GetUploadSession(ctx context.Context, videoID string) (*UploadSession, error)
	GetVideo(ctx context.Context, videoID string) (*RemoteVideo, error)
	DeleteVideo(ctx context.Context, videoID string) error
}
