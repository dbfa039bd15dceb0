package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/ddd/application/cqe"
	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/vo"
	"vod-service/pkg/errno"
)

const testWebhookSecret = "whsec"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(t *testing.T, e cqe.WebhookEvent) []byte {
	t.Helper()
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	return raw
}

func readyRenditions() []gateway.RemoteRendition {
	return []gateway.RemoteRendition{
		{Name: "720p", Width: 1280, Height: 720, Progress: 100, Status: "ready"},
		{Name: "1080p", Width: 1920, Height: 1080, Progress: 100, Status: "ready"},
		{Name: "480p", Width: 854, Height: 480, Progress: 40, Status: "processing"},
	}
}

func statusMap(records []*entity.RenditionRecord) map[vo.Quality]vo.EncodingStatus {
	out := make(map[vo.Quality]vo.EncodingStatus, len(records))
	for _, r := range records {
		out[r.Quality()] = r.Status()
	}
	return out
}

func TestCDNApp_RequestUploadCredentials(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	ctx := context.Background()

	gw.configured = false
	_, err := a.RequestUploadCredentials(ctx, "c1")
	assert.True(t, errno.IsInvalid(err))
	gw.configured = true

	_, err = a.RequestUploadCredentials(ctx, "missing")
	assert.True(t, errno.IsNotFound(err))

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Title: "Intro"})
	f.setRecords(t, "c1", vo.Quality1080p, vo.EncodingCompleted)

	creds, err := a.RequestUploadCredentials(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "remote-1", creds.ProviderAssetID)
	assert.Equal(t, "https://upload.example.com/remote-1", creds.UploadURL)
	assert.Equal(t, "upload-token", creds.Token)

	got := f.asset(t, "c1")
	assert.Equal(t, vo.ProviderCDN, got.Provider())
	assert.Equal(t, "remote-1", got.ProviderAssetID())
	records := f.records(t, "c1")
	require.Len(t, records, 1)
	assert.Equal(t, vo.Quality720p, records[0].Quality())
	assert.Equal(t, vo.EncodingPending, records[0].Status())

	// 重新申请时删除旧的远端视频
	creds, err = a.RequestUploadCredentials(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "remote-2", creds.ProviderAssetID)
	assert.Equal(t, []string{"remote-1"}, gw.deleted)
}

func TestCDNApp_RequestUploadCredentialsDropsLocalArtifacts(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	blobs := newFakeBlobs("c1/master.m3u8", "c1/720p/index.m3u8", "c1/thumbnail.jpg", "c2/master.m3u8")
	a := NewCDNApp(f.contents, f.renditions, gw, blobs, "")
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{
		ID:              "c1",
		Title:           "Intro",
		Provider:        vo.ProviderLocal,
		ProviderAssetID: "local:c1",
		DurationSeconds: 90,
		ThumbnailURL:    "http://media.local/vod/c1/thumbnail.jpg",
	})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingCompleted)

	creds, err := a.RequestUploadCredentials(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "remote-1", creds.ProviderAssetID)

	assert.Equal(t, 1, blobs.count())
	assert.Empty(t, gw.deleted)

	got := f.asset(t, "c1")
	assert.Equal(t, vo.ProviderCDN, got.Provider())
	assert.Equal(t, "remote-1", got.ProviderAssetID())
	assert.Zero(t, got.DurationSeconds())
	assert.Empty(t, got.ThumbnailURL())
}

func TestCDNApp_SyncStatus(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	ctx := context.Background()

	_, err := a.SyncStatus(ctx, "missing")
	assert.True(t, errno.IsNotFound(err))

	f.seed(t, entity.ContentAssetAttrs{ID: "noref"})
	st, err := a.SyncStatus(ctx, "noref")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", st.Status)

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)
	gw.put(&gateway.RemoteVideo{
		ID:          "r1",
		Status:      "ready",
		Renditions:  readyRenditions(),
		Duration:    61.6,
		ManifestURL: "https://cdn.example.com/r1/playlist.m3u8",
		PosterURL:   "https://cdn.example.com/r1/poster.jpg",
		TotalSize:   3000,
	})

	st, err = a.SyncStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", st.Status)
	assert.Equal(t, []string{"1080p", "720p"}, st.AvailableQualities)
	require.NotNil(t, st.Progress)
	assert.Equal(t, 80, *st.Progress)
	require.NotNil(t, st.Duration)
	assert.Equal(t, 62, *st.Duration)
	assert.Equal(t, "https://cdn.example.com/r1/poster.jpg", st.ThumbnailURL)

	records := f.records(t, "c1")
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, vo.EncodingCompleted, r.Status())
		assert.Equal(t, "https://cdn.example.com/r1/playlist.m3u8", r.Locator())
		assert.Equal(t, int64(1500), r.SizeBytes())
	}

	// 已有封面不被覆盖
	gw.put(&gateway.RemoteVideo{ID: "r1", Status: "ready", Renditions: readyRenditions(), PosterURL: "https://other/poster.jpg", ManifestURL: "https://cdn.example.com/r1/playlist.m3u8"})
	_, err = a.SyncStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r1/poster.jpg", f.asset(t, "c1").ThumbnailURL())
}

func TestCDNApp_SyncStatusWritesMappedStatus(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)
	gw.put(&gateway.RemoteVideo{ID: "r1", Status: "errored"})

	st, err := a.SyncStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", st.Status)
	assert.Empty(t, st.AvailableQualities)
	require.NotNil(t, st.Progress)
	assert.Equal(t, 0, *st.Progress)
	assert.Equal(t, vo.EncodingFailed, f.records(t, "c1")[0].Status())

	gw.put(&gateway.RemoteVideo{ID: "r1", Status: "somethingnew"})
	st, err = a.SyncStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", st.Status)

	gw.videos = map[string]*gateway.RemoteVideo{}
	_, err = a.SyncStatus(ctx, "c1")
	assert.True(t, errno.IsNotFound(err))
}

func TestCDNApp_WebhookSignature(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, testWebhookSecret)
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)

	body := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingFailed, VideoID: "r1"})

	for _, bad := range []string{"deadbeef", "not-hex", sign([]byte("other"))} {
		ack := a.HandleWebhook(ctx, body, bad)
		assert.False(t, ack.Received)
		assert.Equal(t, "invalid signature", ack.Message)
	}
	assert.Equal(t, vo.EncodingPending, f.records(t, "c1")[0].Status())

	ack := a.HandleWebhook(ctx, body, sign(body))
	assert.True(t, ack.Received)
	assert.Equal(t, vo.EncodingFailed, f.records(t, "c1")[0].Status())

	// 未带签名头时不校验
	assert.True(t, a.HandleWebhook(ctx, body, "").Received)
	assert.True(t, VerifyWebhookSignature(body, sign(body), testWebhookSecret))
}

func TestCDNApp_WebhookUnknownAsset(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, "")
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)

	body := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingCompleted, VideoID: "unknown", ManifestURL: "https://x/m.m3u8"})
	ack := a.HandleWebhook(ctx, body, "")
	assert.True(t, ack.Received)

	records := f.records(t, "c1")
	require.Len(t, records, 1)
	assert.Equal(t, vo.EncodingPending, records[0].Status())

	assert.True(t, a.HandleWebhook(ctx, []byte("{not json"), "").Received)
}

func TestCDNApp_WebhookCompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, "")
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingProcessing)

	body := webhookBody(t, cqe.WebhookEvent{
		Event:       cqe.WebhookEncodingCompleted,
		VideoID:     "r1",
		Status:      "ready",
		Renditions:  readyRenditions(),
		ManifestURL: "https://cdn.example.com/r1/playlist.m3u8",
		Screenshots: []string{"https://cdn.example.com/r1/s1.jpg"},
		Duration:    12,
		TotalSize:   1000,
	})

	require.True(t, a.HandleWebhook(ctx, body, "").Received)
	first := statusMap(f.records(t, "c1"))
	require.True(t, a.HandleWebhook(ctx, body, "").Received)
	second := statusMap(f.records(t, "c1"))

	assert.Equal(t, first, second)
	assert.Equal(t, map[vo.Quality]vo.EncodingStatus{
		vo.Quality1080p: vo.EncodingCompleted,
		vo.Quality720p:  vo.EncodingCompleted,
	}, second)
	got := f.asset(t, "c1")
	assert.Equal(t, 12, got.DurationSeconds())
	assert.Equal(t, "https://cdn.example.com/r1/s1.jpg", got.ThumbnailURL())
}

func TestCDNApp_WebhookCompletedFallbacks(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, "")
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)

	// 没有清晰度也没有播放地址时不做任何修改
	empty := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingCompleted, VideoID: "r1"})
	assert.True(t, a.HandleWebhook(ctx, empty, "").Received)
	assert.Equal(t, vo.EncodingPending, f.records(t, "c1")[0].Status())

	// 只有播放地址时默认 720p
	manifestOnly := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingCompleted, VideoID: "r1", ManifestURL: "https://cdn.example.com/r1.m3u8"})
	assert.True(t, a.HandleWebhook(ctx, manifestOnly, "").Received)
	records := f.records(t, "c1")
	require.Len(t, records, 1)
	assert.Equal(t, vo.Quality720p, records[0].Quality())
	assert.Equal(t, vo.EncodingCompleted, records[0].Status())
	assert.Equal(t, "https://cdn.example.com/r1.m3u8", records[0].Locator())
}

func TestCDNApp_WebhookProgressAndOther(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, "")
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.seed(t, entity.ContentAssetAttrs{ID: "c2", Provider: vo.ProviderCDN, ProviderAssetID: "r2"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)
	f.setRecords(t, "c2", vo.Quality720p, vo.EncodingCompleted, vo.Quality1080p, vo.EncodingCompleted)

	progress := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingProgress, VideoID: "r1", Renditions: readyRenditions()})
	assert.True(t, a.HandleWebhook(ctx, progress, "").Received)
	assert.Equal(t, vo.EncodingProcessing, f.records(t, "c1")[0].Status())

	other := webhookBody(t, cqe.WebhookEvent{Event: "video.updated", VideoID: "r1", Status: "errored"})
	assert.True(t, a.HandleWebhook(ctx, other, "").Received)
	assert.Equal(t, vo.EncodingFailed, f.records(t, "c1")[0].Status())

	// 乱序到达的进度事件不回退已完成的记录
	late := webhookBody(t, cqe.WebhookEvent{Event: cqe.WebhookEncodingProgress, VideoID: "r2"})
	assert.True(t, a.HandleWebhook(ctx, late, "").Received)
	for _, r := range f.records(t, "c2") {
		assert.Equal(t, vo.EncodingCompleted, r.Status())
	}
}

func TestCDNApp_DeleteVideo(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "gone", DurationSeconds: 9})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingCompleted)

	// 远端已不存在时仍然清理本地
	require.NoError(t, a.DeleteVideo(ctx, "c1"))
	assert.Empty(t, f.records(t, "c1"))
	got := f.asset(t, "c1")
	assert.Equal(t, vo.ProviderNone, got.Provider())
	assert.Zero(t, got.DurationSeconds())
}

func TestCDNApp_ReconcilePending(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "r1"})
	f.seed(t, entity.ContentAssetAttrs{ID: "c2", Provider: vo.ProviderCDN, ProviderAssetID: "r2"})
	f.seed(t, entity.ContentAssetAttrs{ID: "c3", Provider: vo.ProviderCDN, ProviderAssetID: "r3"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)
	f.setRecords(t, "c2", vo.Quality720p, vo.EncodingProcessing)
	f.setRecords(t, "c3", vo.Quality720p, vo.EncodingCompleted)
	gw.put(&gateway.RemoteVideo{ID: "r1", Status: "ready", Renditions: readyRenditions(), ManifestURL: "https://cdn/r1.m3u8"})
	// r2 不存在，同步失败但不影响其他视频

	synced, err := a.ReconcilePending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, vo.EncodingCompleted, f.records(t, "c1")[0].Status())
	assert.Equal(t, vo.EncodingProcessing, f.records(t, "c2")[0].Status())
}

func TestCDNApp_SyncStatusRejectsLocalAssets(t *testing.T) {
	f := newFixture(t)
	a := NewCDNApp(f.contents, f.renditions, newFakeCDN(), nil, "")
	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderLocal, ProviderAssetID: "local:c1"})

	_, err := a.SyncStatus(context.Background(), "c1")
	assert.True(t, errno.IsInvalid(err))
}
