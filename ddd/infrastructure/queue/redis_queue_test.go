package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/port"
)

func newTestRedisQueue(t *testing.T) (*RedisJobQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisJobQueue(client, "test:transcode"), mr
}

func TestRedisJobQueue_Lifecycle(t *testing.T) {
	q, mr := newTestRedisQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, entity.JobTypeTranscode, entity.NewTranscodeJob("c1", "uploads/a.mp4", "a.mp4"), port.DefaultEnqueueOptions())
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, 1, job.Attempt)
	assert.Equal(t, 1, job.MaxAttempts)

	require.NoError(t, q.ReportProgress(ctx, id, 55))
	active, err := q.ActiveJobs(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 55, active[0].Progress)

	require.NoError(t, q.Complete(ctx, id, nil))
	active, err = q.ActiveJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.True(t, mr.Exists("test:transcode:completed"))
	completed, failed, err := q.Finished(ctx)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
	assert.Empty(t, failed)
}

func TestRedisJobQueue_FailedRetention(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx := context.Background()
	opts := port.EnqueueOptions{MaxAttempts: 1, KeepCompleted: 2, KeepFailed: 2}

	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(ctx, entity.JobTypeTranscode, entity.NewTranscodeJob("c1", "a", ""), opts)
		require.NoError(t, err)
		_, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NoError(t, q.Complete(ctx, id, errors.New("boom")))
	}
	_, failed, err := q.Finished(ctx)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
	assert.Equal(t, "boom", failed[0].Error)

	job, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRedisJobQueue_RetryRequeues(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	ctx := context.Background()
	id, err := q.Enqueue(ctx, entity.JobTypeTranscode, entity.NewTranscodeJob("c1", "a", ""), port.EnqueueOptions{MaxAttempts: 2, KeepFailed: 10})
	require.NoError(t, err)
	_, _ = q.Dequeue(ctx, time.Second)
	require.NoError(t, q.Complete(ctx, id, errors.New("transient")))

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 2, job.Attempt)
}
