package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vod-service/ddd/infrastructure/database/po"
)

// SubscriptionStatusActive 有效订阅状态
const SubscriptionStatusActive = "active"

// EntitlementDAO 订阅与购买查询
type EntitlementDAO struct {
	db *gorm.DB
}

// NewEntitlementDAO 创建DAO实例
func NewEntitlementDAO(db *gorm.DB) *EntitlementDAO {
	return &EntitlementDAO{db: db}
}

// CountActiveSubscriptions content_id 为空的订阅覆盖全部内容
func (d *EntitlementDAO) CountActiveSubscriptions(ctx context.Context, userID, contentID string, at time.Time) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Model(&po.Subscription{}).
		Where("user_id = ? AND status = ? AND expires_at > ?", userID, SubscriptionStatusActive, at).
		Where("content_id = ? OR content_id = ''", contentID).
		Count(&n).Error
	return n, err
}

// CountPurchases 购买记录数
func (d *EntitlementDAO) CountPurchases(ctx context.Context, userID, contentID string) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Model(&po.Purchase{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Count(&n).Error
	return n, err
}
