package dao

import (
	"context"

	"gorm.io/gorm"

	"vod-service/ddd/infrastructure/database/po"
	"vod-service/pkg/logger"
)

// RenditionRecordDAO 清晰度记录数据访问对象
type RenditionRecordDAO struct {
	db *gorm.DB
}

// NewRenditionRecordDAO 创建DAO实例
func NewRenditionRecordDAO(db *gorm.DB) *RenditionRecordDAO {
	return &RenditionRecordDAO{db: db}
}

// ListByAsset 按清晰度从高到低
func (d *RenditionRecordDAO) ListByAsset(ctx context.Context, assetID string) ([]*po.RenditionRecord, error) {
	var records []*po.RenditionRecord
	if err := d.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("quality_rank DESC, id ASC").
		Find(&records).Error; err != nil {
		logger.Errorf("Error listing rendition records %v", err)
		return nil, err
	}
	return records, nil
}

// ListByAssetAndStatus 按状态过滤
func (d *RenditionRecordDAO) ListByAssetAndStatus(ctx context.Context, assetID, status string) ([]*po.RenditionRecord, error) {
	var records []*po.RenditionRecord
	if err := d.db.WithContext(ctx).
		Where("asset_id = ? AND status = ?", assetID, status).
		Order("quality_rank DESC, id ASC").
		Find(&records).Error; err != nil {
		logger.Errorf("Error listing rendition records by status %v", err)
		return nil, err
	}
	return records, nil
}

// ReplaceAll 同一事务内删除再插入，读者不会看到空集合
func (d *RenditionRecordDAO) ReplaceAll(ctx context.Context, assetID string, records []*po.RenditionRecord) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", assetID).Delete(&po.RenditionRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		logger.Errorf("Error replacing rendition records asset_id=%s %v", assetID, err)
	}
	return err
}

// DeleteByAsset 删除全部记录
func (d *RenditionRecordDAO) DeleteByAsset(ctx context.Context, assetID string) error {
	if err := d.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Delete(&po.RenditionRecord{}).Error; err != nil {
		logger.Errorf("Error deleting rendition records %v", err)
		return err
	}
	return nil
}

// UpdateStatusByAsset 全部记录写同一状态
func (d *RenditionRecordDAO) UpdateStatusByAsset(ctx context.Context, assetID, status string) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&po.RenditionRecord{}).
		Where("asset_id = ?", assetID).
		Update("status", status)
	if res.Error != nil {
		logger.Errorf("Error updating rendition status %v", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
