package resource

import (
	"strings"

	"vod-service/ddd/domain/gateway"
	"vod-service/pkg/config"
)

// DefaultBlobStore 按 storage.driver 返回已打开的对象存储，未打开时返回 nil
func DefaultBlobStore() gateway.BlobStore {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		return nil
	}
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		if store := DefaultS3Resource().Store(); store != nil {
			return store
		}
	case "", "minio":
		if r := DefaultMinioResource(); r.GetClient() != nil {
			return r.BlobStore()
		}
	}
	return nil
}
