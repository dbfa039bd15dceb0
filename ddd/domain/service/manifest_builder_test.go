package service

import (
	"testing"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/ddd/domain/vo"
)

func TestBuildMasterPlaylist(t *testing.T) {
	data, err := BuildMasterPlaylist(vo.SelectRenditions(720))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "#EXTM3U")
	assert.Contains(t, text, "BANDWIDTH=464000")
	assert.Contains(t, text, "RESOLUTION=1280x720")
	assert.Contains(t, text, "720p/index.m3u8")
	assert.NotContains(t, text, "1080p")

	pl, err := playlist.Unmarshal(data)
	require.NoError(t, err)
	mv, ok := pl.(*playlist.Multivariant)
	require.True(t, ok)
	require.Len(t, mv.Variants, 3)
	assert.Equal(t, 2928000, mv.Variants[2].Bandwidth)
}

func TestBuildMasterPlaylist_Empty(t *testing.T) {
	_, err := BuildMasterPlaylist(nil)
	assert.Error(t, err)
}

func TestParseBitrate(t *testing.T) {
	n, err := parseBitrate("14000k")
	require.NoError(t, err)
	assert.Equal(t, 14000000, n)
	n, err = parseBitrate("2M")
	require.NoError(t, err)
	assert.Equal(t, 2000000, n)
	_, err = parseBitrate("fast")
	assert.Error(t, err)
}
