package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vod-service/ddd/domain/repo"
	"vod-service/ddd/infrastructure/database/dao"
)

type entitlementRepositoryImpl struct {
	entitlementDao *dao.EntitlementDAO
}

// NewEntitlementRepository 创建订阅与购买仓储
func NewEntitlementRepository(db *gorm.DB) repo.EntitlementRepository {
	return &entitlementRepositoryImpl{entitlementDao: dao.NewEntitlementDAO(db)}
}

func (r *entitlementRepositoryImpl) HasActiveSubscription(ctx context.Context, userID, contentID string, at time.Time) (bool, error) {
	n, err := r.entitlementDao.CountActiveSubscriptions(ctx, userID, contentID, at)
	return n > 0, err
}

func (r *entitlementRepositoryImpl) HasPurchase(ctx context.Context, userID, contentID string) (bool, error) {
	n, err := r.entitlementDao.CountPurchases(ctx, userID, contentID)
	return n > 0, err
}
