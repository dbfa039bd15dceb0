package persistence

import (
	"context"

	"gorm.io/gorm"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/database/convertor"
	"vod-service/ddd/infrastructure/database/dao"
	"vod-service/ddd/infrastructure/database/po"
	"vod-service/pkg/errno"
)

// renditionRepositoryImpl 清晰度记录仓储实现
type renditionRepositoryImpl struct {
	recordDao *dao.RenditionRecordDAO
	cvt       *convertor.ContentConvertor
}

// NewRenditionRepository 创建仓储
func NewRenditionRepository(db *gorm.DB) repo.RenditionRepository {
	return &renditionRepositoryImpl{
		recordDao: dao.NewRenditionRecordDAO(db),
		cvt:       convertor.NewContentConvertor(),
	}
}

func (r *renditionRepositoryImpl) ListByAsset(ctx context.Context, contentID string) ([]*entity.RenditionRecord, error) {
	list, err := r.recordDao.ListByAsset(ctx, contentID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.cvt.RecordsToEntities(list), nil
}

func (r *renditionRepositoryImpl) ListCompleted(ctx context.Context, contentID string) ([]*entity.RenditionRecord, error) {
	list, err := r.recordDao.ListByAssetAndStatus(ctx, contentID, string(vo.EncodingCompleted))
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.cvt.RecordsToEntities(list), nil
}

func (r *renditionRepositoryImpl) ReplaceAll(ctx context.Context, contentID string, records []*entity.RenditionRecord) error {
	pos := make([]*po.RenditionRecord, 0, len(records))
	for _, rec := range records {
		p := r.cvt.RecordToPO(rec)
		p.AssetID = contentID
		pos = append(pos, p)
	}
	if err := r.recordDao.ReplaceAll(ctx, contentID, pos); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (r *renditionRepositoryImpl) DeleteByAsset(ctx context.Context, contentID string) error {
	if err := r.recordDao.DeleteByAsset(ctx, contentID); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (r *renditionRepositoryImpl) UpdateStatusAll(ctx context.Context, contentID string, status vo.EncodingStatus) (int64, error) {
	n, err := r.recordDao.UpdateStatusByAsset(ctx, contentID, string(status))
	if err != nil {
		return 0, errno.NewBizError(errno.ErrDatabase, err)
	}
	return n, nil
}
