package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/ddd/application/cqe"
	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/queue"
	"vod-service/pkg/errno"
)

func newTestTranscodeApp(f *fixture, q port.JobQueue, blobs *fakeBlobs, gw *fakeCDN) TranscodeApp {
	cdnApp := NewCDNApp(f.contents, f.renditions, gw, nil, "")
	return NewTranscodeApp(f.contents, f.renditions, q, blobs, cdnApp, port.DefaultEnqueueOptions())
}

func TestTranscodeApp_Enqueue(t *testing.T) {
	f := newFixture(t)
	q := queue.NewMemoryJobQueue(8)
	a := newTestTranscodeApp(f, q, newFakeBlobs(), newFakeCDN())
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1"})
	f.setRecords(t, "c1", vo.Quality1080p, vo.EncodingFailed, vo.Quality720p, vo.EncodingFailed)

	_, err := a.Enqueue(ctx, &cqe.EnqueueTranscodeReq{ContentID: "missing", SourcePath: "/in.mp4"})
	assert.True(t, errno.IsNotFound(err))

	_, err = a.Enqueue(ctx, &cqe.EnqueueTranscodeReq{ContentID: "c1", SourcePath: "  "})
	assert.True(t, errno.IsInvalid(err))

	res, err := a.Enqueue(ctx, &cqe.EnqueueTranscodeReq{ContentID: "c1", SourcePath: "/uploads/in.mp4", Filename: "in.mp4"})
	require.NoError(t, err)
	require.NotEmpty(t, res.JobID)

	records := f.records(t, "c1")
	require.Len(t, records, 1)
	assert.Equal(t, vo.Quality720p, records[0].Quality())
	assert.Equal(t, vo.EncodingPending, records[0].Status())
	assert.Empty(t, records[0].Locator())

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, res.JobID, job.ID)
	assert.Equal(t, "c1", job.ContentID)
	assert.Equal(t, "/uploads/in.mp4", job.SourcePath)
	assert.Equal(t, 1, job.MaxAttempts)
}

func TestTranscodeApp_GetStatus(t *testing.T) {
	f := newFixture(t)
	q := queue.NewMemoryJobQueue(8)
	a := newTestTranscodeApp(f, q, newFakeBlobs(), newFakeCDN())
	ctx := context.Background()

	_, err := a.GetStatus(ctx, "missing")
	assert.True(t, errno.IsNotFound(err))

	f.seed(t, entity.ContentAssetAttrs{ID: "empty"})
	st, err := a.GetStatus(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", st.Status)
	assert.Empty(t, st.AvailableQualities)
	assert.Nil(t, st.Progress)

	f.seed(t, entity.ContentAssetAttrs{ID: "mixed", Provider: vo.ProviderLocal, ProviderAssetID: "local:mixed"})
	f.setRecords(t, "mixed", vo.Quality720p, vo.EncodingCompleted, vo.Quality1080p, vo.EncodingFailed)
	st, err = a.GetStatus(ctx, "mixed")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", st.Status)
	assert.Equal(t, []string{"720p"}, st.AvailableQualities)
	assert.Equal(t, "local:mixed", st.ProviderAssetID)
}

func TestTranscodeApp_GetStatusLiveProgress(t *testing.T) {
	f := newFixture(t)
	q := queue.NewMemoryJobQueue(8)
	a := newTestTranscodeApp(f, q, newFakeBlobs(), newFakeCDN())
	ctx := context.Background()
	f.seed(t, entity.ContentAssetAttrs{ID: "c1"})
	f.seed(t, entity.ContentAssetAttrs{ID: "c2"})

	_, err := a.Enqueue(ctx, &cqe.EnqueueTranscodeReq{ContentID: "c1", SourcePath: "/in.mp4"})
	require.NoError(t, err)
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.ReportProgress(ctx, job.ID, 42))
	_, err = f.renditions.UpdateStatusAll(ctx, "c1", vo.EncodingProcessing)
	require.NoError(t, err)

	st, err := a.GetStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", st.Status)
	require.NotNil(t, st.Progress)
	assert.Equal(t, 42, *st.Progress)

	// 没有对应的执行中任务时不返回进度
	f.setRecords(t, "c2", vo.Quality720p, vo.EncodingProcessing)
	st, err = a.GetStatus(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", st.Status)
	assert.Nil(t, st.Progress)
}

func TestTranscodeApp_DeleteLocalVideo(t *testing.T) {
	f := newFixture(t)
	blobs := newFakeBlobs("c1/master.m3u8", "c1/720p/index.m3u8", "c1/thumbnail.jpg", "c2/master.m3u8")
	a := newTestTranscodeApp(f, queue.NewMemoryJobQueue(1), blobs, newFakeCDN())
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{ID: "novideo"})
	err := a.DeleteVideo(ctx, "novideo")
	assert.True(t, errno.IsInvalid(err))

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderLocal, ProviderAssetID: "local:c1", DurationSeconds: 30, ThumbnailURL: "http://media.local/vod/c1/thumbnail.jpg"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingCompleted)

	require.NoError(t, a.DeleteVideo(ctx, "c1"))
	assert.Equal(t, 1, blobs.count())
	assert.Empty(t, f.records(t, "c1"))
	got := f.asset(t, "c1")
	assert.Equal(t, vo.ProviderNone, got.Provider())
	assert.Empty(t, got.ProviderAssetID())
	assert.Zero(t, got.DurationSeconds())
	assert.Empty(t, got.ThumbnailURL())
}

func TestTranscodeApp_DelegatesCDNAssets(t *testing.T) {
	f := newFixture(t)
	gw := newFakeCDN()
	a := newTestTranscodeApp(f, queue.NewMemoryJobQueue(1), newFakeBlobs(), gw)
	ctx := context.Background()

	f.seed(t, entity.ContentAssetAttrs{ID: "c1", Provider: vo.ProviderCDN, ProviderAssetID: "remote-x"})
	f.setRecords(t, "c1", vo.Quality720p, vo.EncodingPending)
	gw.put(&gateway.RemoteVideo{ID: "remote-x", Status: "processing"})

	st, err := a.GetStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", st.Status)
	assert.Equal(t, "remote-x", st.ProviderAssetID)

	require.NoError(t, a.DeleteVideo(ctx, "c1"))
	assert.Equal(t, []string{"remote-x"}, gw.deleted)
	assert.Empty(t, f.records(t, "c1"))
}
