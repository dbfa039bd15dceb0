package vo

import (
	"fmt"
	"sort"
	"strings"
)

// Quality 清晰度档位，按从低到高排序
type Quality string

const (
	Quality240p  Quality = "240p"
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
	Quality4K    Quality = "4k"
)

// QualityPreset 单个档位的编码参数，码率为固定常量，不随源文件变化
type QualityPreset struct {
	Quality      Quality
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
}

// ladder 从低到高
var ladder = []QualityPreset{
	{Quality: Quality240p, Width: 426, Height: 240, VideoBitrate: "400k", AudioBitrate: "64k"},
	{Quality: Quality480p, Width: 854, Height: 480, VideoBitrate: "1400k", AudioBitrate: "128k"},
	{Quality: Quality720p, Width: 1280, Height: 720, VideoBitrate: "2800k", AudioBitrate: "128k"},
	{Quality: Quality1080p, Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
	{Quality: Quality4K, Width: 3840, Height: 2160, VideoBitrate: "14000k", AudioBitrate: "192k"},
}

// Ladder 返回完整档位列表的副本
func Ladder() []QualityPreset {
	out := make([]QualityPreset, len(ladder))
	copy(out, ladder)
	return out
}

// SelectRenditions 选出高度不超过源视频的档位；源比最低档还小时只保留最低档，不做放大
func SelectRenditions(sourceHeight int) []QualityPreset {
	selected := make([]QualityPreset, 0, len(ladder))
	for _, p := range ladder {
		if p.Height <= sourceHeight {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, ladder[0])
	}
	return selected
}

// MidTierQuality 占位记录使用的中间档
func MidTierQuality() Quality {
	return Quality720p
}

// FreeQualityCap 免费内容的最高清晰度
func FreeQualityCap() Quality {
	return Quality720p
}

// Rank 档位序号，越大越清晰；未知档位为 -1
func (q Quality) Rank() int {
	for i, p := range ladder {
		if p.Quality == q {
			return i
		}
	}
	return -1
}

func (q Quality) String() string {
	return string(q)
}

// IsValid 是否属于档位表
func (q Quality) IsValid() bool {
	return q.Rank() >= 0
}

// Preset 返回档位参数
func (q Quality) Preset() (QualityPreset, bool) {
	for _, p := range ladder {
		if p.Quality == q {
			return p, true
		}
	}
	return QualityPreset{}, false
}

// ParseQuality 解析 "720p"/"720"/"4K"/"2160p" 等写法
func ParseQuality(s string) (Quality, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "4k", "2160p", "2160", "uhd":
		return Quality4K, nil
	}
	if !strings.HasSuffix(v, "p") {
		v += "p"
	}
	q := Quality(v)
	if !q.IsValid() {
		return "", fmt.Errorf("unknown quality: %s", s)
	}
	return q, nil
}

// QualityFromHeight 将外部服务的分辨率名映射到档位表，高度不在表内时向下取最近档位
func QualityFromHeight(height int) (Quality, bool) {
	if height <= 0 {
		return "", false
	}
	var match Quality
	for _, p := range ladder {
		if p.Height <= height {
			match = p.Quality
		}
	}
	if match == "" {
		return "", false
	}
	return match, true
}

// SortQualitiesDesc 按清晰度从高到低排序并去重
func SortQualitiesDesc(qs []Quality) []Quality {
	seen := make(map[Quality]struct{}, len(qs))
	out := make([]Quality, 0, len(qs))
	for _, q := range qs {
		if _, ok := seen[q]; ok || !q.IsValid() {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() > out[j].Rank() })
	return out
}

// MaxQuality 返回列表中最高的档位
func MaxQuality(qs []Quality) (Quality, bool) {
	sorted := SortQualitiesDesc(qs)
	if len(sorted) == 0 {
		return "", false
	}
	return sorted[0], true
}

// CapQuality 取 q 与 limit 中较低者
func CapQuality(q, limit Quality) Quality {
	if q.Rank() > limit.Rank() {
		return limit
	}
	return q
}

// QualityStrings 转成字符串切片，便于输出
func QualityStrings(qs []Quality) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.String())
	}
	return out
}
