package vo

import "math"

// MediaInfo 源文件探测结果
type MediaInfo struct {
	Width      int
	Height     int
	Duration   float64
	VideoCodec string
	AudioCodec string
	Bitrate    int64
}

// DurationSeconds 四舍五入到整秒
func (m MediaInfo) DurationSeconds() int {
	return int(math.Round(m.Duration))
}

// ThumbnailOffset 截图时间点：min(at, duration)，不小于 0
func (m MediaInfo) ThumbnailOffset(at float64) float64 {
	offset := math.Min(at, m.Duration)
	if offset < 0 {
		return 0
	}
	return offset
}
