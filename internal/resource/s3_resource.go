package resource

import (
	"context"
	"strings"
	"sync"
	"time"

	"vod-service/ddd/infrastructure/storage"
	"vod-service/pkg/assert"
	"vod-service/pkg/config"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
)

var (
	s3ResourceOnce      sync.Once
	singletonS3Resource *S3Resource
)

// S3Resource AWS S3 或兼容服务，storage.driver=s3 时启用
type S3Resource struct {
	store *storage.S3Storage
}

// DefaultS3Resource 获取S3资源单例
func DefaultS3Resource() *S3Resource {
	assert.NotCircular()
	s3ResourceOnce.Do(func() {
		singletonS3Resource = &S3Resource{}
	})
	assert.NotNil(singletonS3Resource)
	return singletonS3Resource
}

func (r *S3Resource) MustOpen() {
	if r.store != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before S3Resource")
	}
	if cfg.S3.Bucket == "" {
		panic("s3 bucket is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.NewS3Storage(ctx, cfg.S3, cfg.Storage.PublicBase)
	if err != nil {
		panic("failed to create s3 client: " + err.Error())
	}
	r.store = store

	logger.Info("S3 resource initialized", map[string]interface{}{
		"region":   cfg.S3.Region,
		"bucket":   cfg.S3.Bucket,
		"endpoint": cfg.S3.Endpoint,
	})
}

// Store 以 S3 实现的对象存储
func (r *S3Resource) Store() *storage.S3Storage {
	return r.store
}

func (r *S3Resource) Close() {}

// S3ResourcePlugin S3资源插件
type S3ResourcePlugin struct{}

func (p *S3ResourcePlugin) Name() string { return "s3Resource" }

func (p *S3ResourcePlugin) MustCreateResource() manager.Resource {
	cfg := config.GetGlobalConfig()
	if cfg == nil || !strings.EqualFold(cfg.Storage.Driver, "s3") {
		return nil
	}
	return DefaultS3Resource()
}
