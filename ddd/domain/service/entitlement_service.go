package service

import (
	"context"
	"fmt"
	"time"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/vo"
)

// EntitlementService 播放授权检查
type EntitlementService interface {
	Check(ctx context.Context, asset *entity.ContentAsset, caller *vo.Caller) (vo.AccessDecision, error)
}

type entitlementServiceImpl struct {
	repo repo.EntitlementRepository
	now  func() time.Time
}

// NewEntitlementService 创建授权服务
func NewEntitlementService(r repo.EntitlementRepository) EntitlementService {
	return &entitlementServiceImpl{repo: r, now: time.Now}
}

// Check 按顺序匹配规则，命中即返回
func (s *entitlementServiceImpl) Check(ctx context.Context, asset *entity.ContentAsset, caller *vo.Caller) (vo.AccessDecision, error) {
	if caller.IsElevated() {
		return grant(vo.AccessAdmin), nil
	}
	if !asset.IsPublished() {
		return deny(vo.ReasonContentUnavailable), nil
	}
	if asset.IsFree() {
		return grant(vo.AccessFree), nil
	}
	if caller == nil || caller.UserID == "" {
		return deny(vo.ReasonAuthRequired), nil
	}

	ok, err := s.repo.HasActiveSubscription(ctx, caller.UserID, asset.ID(), s.now())
	if err != nil {
		return vo.AccessDecision{}, fmt.Errorf("query subscription: %w", err)
	}
	if ok {
		return grant(vo.AccessSubscription), nil
	}

	ok, err = s.repo.HasPurchase(ctx, caller.UserID, asset.ID())
	if err != nil {
		return vo.AccessDecision{}, fmt.Errorf("query purchase: %w", err)
	}
	if ok {
		return grant(vo.AccessPurchase), nil
	}
	return deny(vo.ReasonPaymentRequired), nil
}

func grant(t vo.AccessType) vo.AccessDecision {
	return vo.AccessDecision{Granted: true, AccessType: t}
}

func deny(reason string) vo.AccessDecision {
	return vo.AccessDecision{Reason: reason}
}
