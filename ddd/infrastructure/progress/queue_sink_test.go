package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/infrastructure/queue"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []gateway.ProgressEvent
	err    error
}

func (p *recordingPublisher) PublishProgress(_ context.Context, e gateway.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func activeJob(t *testing.T, q *queue.MemoryJobQueue) *entity.TranscodeJob {
	t.Helper()
	ctx := context.Background()
	_, err := q.Enqueue(ctx, entity.JobTypeTranscode, entity.NewTranscodeJob("c1", "/in.mp4", "in.mp4"), port.DefaultEnqueueOptions())
	require.NoError(t, err)
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestQueueSink_SaveProgress(t *testing.T) {
	q := queue.NewMemoryJobQueue(2)
	pub := &recordingPublisher{}
	sink := NewQueueSink(q, pub)
	job := activeJob(t, q)
	ctx := context.Background()

	require.NoError(t, sink.SaveProgress(ctx, job, 30))
	require.NoError(t, sink.SaveProgress(ctx, job, 30))
	require.NoError(t, sink.SaveProgress(ctx, job, 10))

	active, err := q.ActiveJobs(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 30, active[0].Progress)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "c1", pub.events[0].ContentID)
	assert.Equal(t, job.ID, pub.events[0].JobID)
	assert.Equal(t, "PROCESSING", pub.events[0].Status)
}

func TestQueueSink_SaveResult(t *testing.T) {
	q := queue.NewMemoryJobQueue(2)
	pub := &recordingPublisher{err: errors.New("broker down")}
	sink := NewQueueSink(q, pub)
	job := activeJob(t, q)
	ctx := context.Background()

	require.NoError(t, sink.SaveResult(ctx, job, nil))
	require.NoError(t, sink.SaveResult(ctx, job, errors.New("boom")))

	require.Len(t, pub.events, 2)
	assert.Equal(t, "COMPLETED", pub.events[0].Status)
	assert.Equal(t, 100, pub.events[0].Progress)
	assert.Equal(t, "FAILED", pub.events[1].Status)
}

func TestQueueSink_WithoutPublisher(t *testing.T) {
	q := queue.NewMemoryJobQueue(2)
	sink := NewQueueSink(q, nil)
	job := activeJob(t, q)

	require.NoError(t, sink.SaveProgress(context.Background(), job, 50))
	require.NoError(t, sink.SaveResult(context.Background(), job, nil))
	assert.Nil(t, NewKafkaPublisher(nil, "topic"))
}
