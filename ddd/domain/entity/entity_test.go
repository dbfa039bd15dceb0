package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vod-service/ddd/domain/vo"
)

func TestContentAsset_ProviderLifecycle(t *testing.T) {
	a := RestoreContentAsset(ContentAssetAttrs{ID: "c1", Status: LifecyclePublished})

	a.LinkLocal(42)
	assert.Equal(t, vo.ProviderLocal, a.Provider())
	assert.Equal(t, "local:c1", a.ProviderAssetID())
	assert.Equal(t, 42, a.DurationSeconds())

	a.LinkCDN("remote-9")
	assert.True(t, a.IsCDN())
	assert.Equal(t, "remote-9", a.ProviderAssetID())

	a.SetThumbnailURL("http://img")
	a.ResetProvider()
	assert.Equal(t, vo.ProviderNone, a.Provider())
	assert.Empty(t, a.ProviderAssetID())
	assert.Zero(t, a.DurationSeconds())
	assert.Empty(t, a.ThumbnailURL())
}

func TestContentAsset_BackfillOnlyWhenUnset(t *testing.T) {
	a := RestoreContentAsset(ContentAssetAttrs{ID: "c1", DurationSeconds: 10})
	assert.True(t, a.BackfillMedia(99, "thumb"))
	assert.Equal(t, 10, a.DurationSeconds())
	assert.Equal(t, "thumb", a.ThumbnailURL())
	assert.False(t, a.BackfillMedia(99, "other"))
	assert.Equal(t, "thumb", a.ThumbnailURL())
}

func TestRecordHelpers(t *testing.T) {
	records := []*RenditionRecord{
		NewRenditionRecord("c1", vo.Quality720p, vo.EncodingCompleted, "m", 0),
		NewRenditionRecord("c1", vo.Quality1080p, vo.EncodingFailed, "m", 0),
	}
	assert.Equal(t, []vo.Quality{vo.Quality720p}, CompletedQualities(records))
	assert.False(t, AllCompleted(records))
	assert.Equal(t, vo.EncodingFailed, vo.DeriveOverallStatus(Statuses(records)))

	completed := CompletedRecords("c1", []vo.Quality{vo.Quality480p, vo.Quality720p}, "url", 1001)
	assert.Len(t, completed, 2)
	assert.Equal(t, int64(500), completed[0].SizeBytes())
	assert.True(t, AllCompleted(completed))

	p := NewPlaceholderRecord("c1")
	assert.Equal(t, vo.Quality720p, p.Quality())
	assert.Equal(t, vo.EncodingPending, p.Status())
	assert.Empty(t, p.Locator())
}

func TestTranscodeJob_ProgressMonotonic(t *testing.T) {
	j := NewTranscodeJob("c1", "/in.mp4", "in.mp4")
	assert.True(t, j.SetProgress(30))
	assert.False(t, j.SetProgress(20))
	assert.Equal(t, 30, j.Progress)
	assert.True(t, j.SetProgress(150))
	assert.Equal(t, 100, j.Progress)
}
