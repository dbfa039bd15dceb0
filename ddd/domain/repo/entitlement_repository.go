package repo

import (
	"context"
	"time"
)

// EntitlementRepository 订阅与购买查询
type EntitlementRepository interface {
	// HasActiveSubscription 在 at 时刻是否有覆盖该内容的有效订阅
	HasActiveSubscription(ctx context.Context, userID, contentID string, at time.Time) (bool, error)

	// HasPurchase 是否单独购买过该内容
	HasPurchase(ctx context.Context, userID, contentID string) (bool, error)
}
