package repo

import (
	"context"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/vo"
)

// ContentRepository 内容仓储
type ContentRepository interface {
	// Create 新建内容，内容服务之外只在初始化数据时使用
	Create(ctx context.Context, asset *entity.ContentAsset) error

	// Get 按 content_id 获取，不存在返回 NotFound
	Get(ctx context.Context, contentID string) (*entity.ContentAsset, error)

	// FindByProviderRef 按外部引用查找，不存在返回 NotFound
	FindByProviderRef(ctx context.Context, providerAssetID string) (*entity.ContentAsset, error)

	// UpdateEncoding 只写回编码相关字段
	UpdateEncoding(ctx context.Context, asset *entity.ContentAsset) error

	// ListByProviderAndStatus 指定 provider 且存在给定状态记录的内容
	ListByProviderAndStatus(ctx context.Context, provider vo.ProviderTag, statuses []vo.EncodingStatus, limit int) ([]*entity.ContentAsset, error)
}
