package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/database/convertor"
	"vod-service/ddd/infrastructure/database/dao"
	"vod-service/pkg/errno"
)

// contentRepositoryImpl 内容仓储实现
type contentRepositoryImpl struct {
	contentDao *dao.ContentAssetDAO
	cvt        *convertor.ContentConvertor
}

// NewContentRepository 创建内容仓储
func NewContentRepository(db *gorm.DB) repo.ContentRepository {
	return &contentRepositoryImpl{
		contentDao: dao.NewContentAssetDAO(db),
		cvt:        convertor.NewContentConvertor(),
	}
}

func (r *contentRepositoryImpl) Create(ctx context.Context, asset *entity.ContentAsset) error {
	return r.contentDao.Create(ctx, r.cvt.AssetToPO(asset))
}

func (r *contentRepositoryImpl) Get(ctx context.Context, contentID string) (*entity.ContentAsset, error) {
	p, err := r.contentDao.FindByContentID(ctx, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.NotFound("content %s not found", contentID)
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.cvt.AssetToEntity(p), nil
}

func (r *contentRepositoryImpl) FindByProviderRef(ctx context.Context, providerAssetID string) (*entity.ContentAsset, error) {
	if providerAssetID == "" {
		return nil, errno.NotFound("empty provider reference")
	}
	p, err := r.contentDao.FindByProviderAssetID(ctx, providerAssetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.NotFound("provider asset %s not found", providerAssetID)
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.cvt.AssetToEntity(p), nil
}

func (r *contentRepositoryImpl) UpdateEncoding(ctx context.Context, asset *entity.ContentAsset) error {
	err := r.contentDao.UpdateEncodingFields(ctx, asset.ID(), string(asset.Provider()), asset.ProviderAssetID(), asset.ThumbnailURL(), asset.DurationSeconds())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errno.NotFound("content %s not found", asset.ID())
	}
	if err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (r *contentRepositoryImpl) ListByProviderAndStatus(ctx context.Context, provider vo.ProviderTag, statuses []vo.EncodingStatus, limit int) ([]*entity.ContentAsset, error) {
	ss := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ss = append(ss, string(s))
	}
	list, err := r.contentDao.ListByProviderWithRenditionStatus(ctx, string(provider), ss, limit)
	if err != nil {
		return nil, fmt.Errorf("list content by provider: %w", err)
	}
	return r.cvt.AssetsToEntities(list), nil
}
