package repo

import (
	"context"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/vo"
)

// RenditionRepository 清晰度记录仓储
type RenditionRepository interface {
	// ListByAsset 全部记录
	ListByAsset(ctx context.Context, contentID string) ([]*entity.RenditionRecord, error)

	// ListCompleted 已完成记录，按清晰度从高到低
	ListCompleted(ctx context.Context, contentID string) ([]*entity.RenditionRecord, error)

	// ReplaceAll 在一个事务内删除旧记录并写入新记录
	ReplaceAll(ctx context.Context, contentID string, records []*entity.RenditionRecord) error

	// DeleteByAsset 删除全部记录
	DeleteByAsset(ctx context.Context, contentID string) error

	// UpdateStatusAll 把全部记录改为同一状态，返回影响行数
	UpdateStatusAll(ctx context.Context, contentID string, status vo.EncodingStatus) (int64, error)
}
