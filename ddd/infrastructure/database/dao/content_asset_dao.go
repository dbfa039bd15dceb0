package dao

import (
	"context"

	"gorm.io/gorm"

	"vod-service/ddd/infrastructure/database/po"
	"vod-service/pkg/logger"
)

// ContentAssetDAO 内容数据访问对象
type ContentAssetDAO struct {
	db *gorm.DB
}

// NewContentAssetDAO 创建DAO实例
func NewContentAssetDAO(db *gorm.DB) *ContentAssetDAO {
	return &ContentAssetDAO{db: db}
}

// Create 新建内容
func (d *ContentAssetDAO) Create(ctx context.Context, asset *po.ContentAsset) error {
	if err := d.db.WithContext(ctx).Model(&po.ContentAsset{}).Create(asset).Error; err != nil {
		logger.Errorf("Error creating content asset %v", err)
		return err
	}
	return nil
}

// FindByContentID 不存在时返回 gorm.ErrRecordNotFound
func (d *ContentAssetDAO) FindByContentID(ctx context.Context, contentID string) (*po.ContentAsset, error) {
	var asset po.ContentAsset
	if err := d.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByProviderAssetID 按外部引用查询
func (d *ContentAssetDAO) FindByProviderAssetID(ctx context.Context, providerAssetID string) (*po.ContentAsset, error) {
	var asset po.ContentAsset
	if err := d.db.WithContext(ctx).
		Where("provider_asset_id = ?", providerAssetID).
		First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateEncodingFields 更新编码字段，允许写入零值
func (d *ContentAssetDAO) UpdateEncodingFields(ctx context.Context, contentID string, provider, providerAssetID, thumbnailURL string, durationSeconds int) error {
	update := map[string]interface{}{
		"provider":          provider,
		"provider_asset_id": providerAssetID,
		"thumbnail_url":     thumbnailURL,
		"duration_seconds":  durationSeconds,
	}
	res := d.db.WithContext(ctx).
		Model(&po.ContentAsset{}).
		Where("content_id = ?", contentID).
		Updates(update)
	if res.Error != nil {
		logger.Errorf("Error updating content asset encoding fields %v", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProviderWithRenditionStatus 指定 provider 且存在给定状态记录的内容
func (d *ContentAssetDAO) ListByProviderWithRenditionStatus(ctx context.Context, provider string, statuses []string, limit int) ([]*po.ContentAsset, error) {
	sub := d.db.WithContext(ctx).
		Model(&po.RenditionRecord{}).
		Select("asset_id").
		Where("status IN ?", statuses)

	var assets []*po.ContentAsset
	q := d.db.WithContext(ctx).
		Where("provider = ? AND provider_asset_id <> ''", provider).
		Where("content_id IN (?)", sub).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&assets).Error; err != nil {
		logger.Errorf("Error listing content assets by provider %v", err)
		return nil, err
	}
	return assets, nil
}
