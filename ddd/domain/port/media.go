package port

import (
	"context"
	"errors"

	"vod-service/ddd/domain/vo"
)

var (
	// ErrNoVideoStream 源文件没有可解码的视频轨
	ErrNoVideoStream = errors.New("no decodable video stream")
	// ErrProbeFailed ffprobe 执行或解析失败
	ErrProbeFailed = errors.New("probe failed")
)

// ProgressCallback 进度回调，0-100
type ProgressCallback func(progress int)

// HLSRequest 单个清晰度的切片请求
type HLSRequest struct {
	Input          string
	OutputDir      string
	Preset         vo.QualityPreset
	SegmentSeconds int
	ProgressCb     ProgressCallback
}

// HLSOutput 切片产物，均为本地路径
type HLSOutput struct {
	Playlist string
	Segments []string
}

// MediaAdapter 媒体处理端口
type MediaAdapter interface {
	Probe(ctx context.Context, input string) (vo.MediaInfo, error)
	ExtractThumbnail(ctx context.Context, input, output string, atSeconds float64) error
	TranscodeHLS(ctx context.Context, req HLSRequest) (*HLSOutput, error)
}
