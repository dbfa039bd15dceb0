package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/port"
	"vod-service/pkg/errno"
	"vod-service/pkg/logger"
)

// RedisJobQueue 基于 Redis 的持久化任务队列
//
//	{prefix}:wait       待执行 list
//	{prefix}:active     执行中 hash，id -> job
//	{prefix}:completed  最近完成 list，按 KeepCompleted 截断
//	{prefix}:failed     最近失败 list，按 KeepFailed 截断
type RedisJobQueue struct {
	client *redis.Client
	prefix string
}

type redisEnvelope struct {
	Job  *entity.TranscodeJob `json:"job"`
	Opts port.EnqueueOptions  `json:"opts"`
}

// NewRedisJobQueue 创建队列
func NewRedisJobQueue(client *redis.Client, prefix string) *RedisJobQueue {
	if prefix == "" {
		prefix = "vod:transcode"
	}
	return &RedisJobQueue{client: client, prefix: prefix}
}

var _ port.JobQueue = (*RedisJobQueue)(nil)

func (q *RedisJobQueue) waitKey() string      { return q.prefix + ":wait" }
func (q *RedisJobQueue) activeKey() string    { return q.prefix + ":active" }
func (q *RedisJobQueue) completedKey() string { return q.prefix + ":completed" }
func (q *RedisJobQueue) failedKey() string    { return q.prefix + ":failed" }

func (q *RedisJobQueue) Enqueue(ctx context.Context, jobType string, job *entity.TranscodeJob, opts port.EnqueueOptions) (string, error) {
	if job == nil {
		return "", fmt.Errorf("job cannot be nil")
	}
	job.ID = uuid.NewString()
	job.Type = jobType
	job.MaxAttempts = opts.MaxAttempts
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	raw, err := json.Marshal(redisEnvelope{Job: job, Opts: opts})
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.waitKey(), raw).Err(); err != nil {
		return "", fmt.Errorf("rpush: %w", err)
	}
	logger.Debugf("enqueued job job_id=%s content_id=%s", job.ID, job.ContentID)
	return job.ID, nil
}

// Dequeue BLPOP 超时返回 nil, nil
func (q *RedisJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*entity.TranscodeJob, error) {
	res, err := q.client.BLPop(ctx, timeout, q.waitKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected blpop result size %d", len(res))
	}
	var env redisEnvelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil || env.Job == nil {
		logger.Error("discard malformed job", map[string]interface{}{"raw": res[1]})
		return nil, nil
	}
	env.Job.Attempt++
	env.Job.StartedAt = time.Now()
	if err := q.saveActive(ctx, &env); err != nil {
		return nil, err
	}
	return env.Job, nil
}

func (q *RedisJobQueue) ActiveJobs(ctx context.Context) ([]*entity.TranscodeJob, error) {
	vals, err := q.client.HVals(ctx, q.activeKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("hvals: %w", err)
	}
	out := make([]*entity.TranscodeJob, 0, len(vals))
	for _, v := range vals {
		var env redisEnvelope
		if err := json.Unmarshal([]byte(v), &env); err != nil || env.Job == nil {
			continue
		}
		out = append(out, env.Job)
	}
	return out, nil
}

func (q *RedisJobQueue) ReportProgress(ctx context.Context, jobID string, progress int) error {
	env, err := q.loadActive(ctx, jobID)
	if err != nil || env == nil {
		return err
	}
	if !env.Job.SetProgress(progress) {
		return nil
	}
	return q.saveActive(ctx, env)
}

func (q *RedisJobQueue) Complete(ctx context.Context, jobID string, jobErr error) error {
	env, err := q.loadActive(ctx, jobID)
	if err != nil {
		return err
	}
	if env == nil {
		return errno.NotFound("job %s is not active", jobID)
	}
	env.Job.FinishedAt = time.Now()

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, q.activeKey(), jobID)
	switch {
	case jobErr == nil:
		raw, _ := json.Marshal(env.Job)
		pushBounded(ctx, pipe, q.completedKey(), raw, env.Opts.KeepCompleted)
	case env.Job.Attempt < env.Opts.MaxAttempts:
		env.Job.Error = jobErr.Error()
		raw, _ := json.Marshal(env)
		pipe.RPush(ctx, q.waitKey(), raw)
	default:
		env.Job.Error = jobErr.Error()
		raw, _ := json.Marshal(env.Job)
		pushBounded(ctx, pipe, q.failedKey(), raw, env.Opts.KeepFailed)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

// Finished 最近完成和失败的任务，最新的在前
func (q *RedisJobQueue) Finished(ctx context.Context) (completed, failed []*entity.TranscodeJob, err error) {
	if completed, err = q.readList(ctx, q.completedKey()); err != nil {
		return nil, nil, err
	}
	if failed, err = q.readList(ctx, q.failedKey()); err != nil {
		return nil, nil, err
	}
	return completed, failed, nil
}

// Close 客户端由 resource 管理
func (q *RedisJobQueue) Close() error {
	return nil
}

func (q *RedisJobQueue) readList(ctx context.Context, key string) ([]*entity.TranscodeJob, error) {
	vals, err := q.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	out := make([]*entity.TranscodeJob, 0, len(vals))
	for _, v := range vals {
		var j entity.TranscodeJob
		if json.Unmarshal([]byte(v), &j) == nil {
			out = append(out, &j)
		}
	}
	return out, nil
}

func (q *RedisJobQueue) loadActive(ctx context.Context, jobID string) (*redisEnvelope, error) {
	raw, err := q.client.HGet(ctx, q.activeKey(), jobID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget: %w", err)
	}
	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.Job == nil {
		return nil, fmt.Errorf("decode active job %s: %v", jobID, err)
	}
	return &env, nil
}

func (q *RedisJobQueue) saveActive(ctx context.Context, env *redisEnvelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.HSet(ctx, q.activeKey(), env.Job.ID, raw).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func pushBounded(ctx context.Context, pipe redis.Pipeliner, key string, raw []byte, keep int) {
	if keep <= 0 {
		return
	}
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(keep-1))
}
