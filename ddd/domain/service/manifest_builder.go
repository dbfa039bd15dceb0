package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"vod-service/ddd/domain/vo"
)

// VariantPath 子播放列表相对 master 的路径
func VariantPath(q vo.Quality) string {
	return string(q) + "/index.m3u8"
}

// BuildMasterPlaylist 生成 master.m3u8，BANDWIDTH 为视频加音频码率
func BuildMasterPlaylist(presets []vo.QualityPreset) ([]byte, error) {
	if len(presets) == 0 {
		return nil, fmt.Errorf("no renditions for master playlist")
	}
	mv := &playlist.Multivariant{
		Version:             3,
		IndependentSegments: true,
	}
	for _, p := range presets {
		bw, err := presetBandwidth(p)
		if err != nil {
			return nil, err
		}
		mv.Variants = append(mv.Variants, &playlist.MultivariantVariant{
			Bandwidth:  bw,
			Resolution: fmt.Sprintf("%dx%d", p.Width, p.Height),
			URI:        VariantPath(p.Quality),
		})
	}
	return mv.Marshal()
}

func presetBandwidth(p vo.QualityPreset) (int, error) {
	v, err := parseBitrate(p.VideoBitrate)
	if err != nil {
		return 0, fmt.Errorf("preset %s video bitrate: %w", p.Quality, err)
	}
	a, err := parseBitrate(p.AudioBitrate)
	if err != nil {
		return 0, fmt.Errorf("preset %s audio bitrate: %w", p.Quality, err)
	}
	return v + a, nil
}

// parseBitrate "2800k" -> 2800000
func parseBitrate(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	mult := 1
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1000 * 1000
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}
