package convertor

import (
	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/database/po"
)

// ContentConvertor 内容与清晰度记录转换器
type ContentConvertor struct{}

// NewContentConvertor 创建转换器
func NewContentConvertor() *ContentConvertor {
	return &ContentConvertor{}
}

// AssetToEntity 将PO转换为Entity
func (c *ContentConvertor) AssetToEntity(p *po.ContentAsset) *entity.ContentAsset {
	if p == nil {
		return nil
	}
	return entity.RestoreContentAsset(entity.ContentAssetAttrs{
		ID:              p.ContentID,
		Title:           p.Title,
		Description:     p.Description,
		Status:          entity.LifecycleStatus(p.Status),
		Free:            p.IsFree,
		Price:           p.Price,
		DurationSeconds: p.DurationSeconds,
		ThumbnailURL:    p.ThumbnailURL,
		Provider:        vo.ProviderTag(p.Provider),
		ProviderAssetID: p.ProviderAssetID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	})
}

// AssetToPO 将Entity转换为PO
func (c *ContentConvertor) AssetToPO(e *entity.ContentAsset) *po.ContentAsset {
	return &po.ContentAsset{
		BaseModel:       po.BaseModel{CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()},
		ContentID:       e.ID(),
		Title:           e.Title(),
		Description:     e.Description(),
		Status:          string(e.Status()),
		IsFree:          e.IsFree(),
		Price:           e.Price(),
		DurationSeconds: e.DurationSeconds(),
		ThumbnailURL:    e.ThumbnailURL(),
		Provider:        string(e.Provider()),
		ProviderAssetID: e.ProviderAssetID(),
	}
}

// AssetsToEntities 批量转换
func (c *ContentConvertor) AssetsToEntities(list []*po.ContentAsset) []*entity.ContentAsset {
	out := make([]*entity.ContentAsset, 0, len(list))
	for _, p := range list {
		out = append(out, c.AssetToEntity(p))
	}
	return out
}

// RecordToEntity 未知状态按 PENDING 处理
func (c *ContentConvertor) RecordToEntity(p *po.RenditionRecord) *entity.RenditionRecord {
	return entity.RestoreRenditionRecord(
		p.Id,
		p.AssetID,
		vo.Quality(p.Quality),
		vo.ParseEncodingStatus(p.Status),
		p.Locator,
		p.SizeBytes,
		p.CreatedAt,
		p.UpdatedAt,
	)
}

// RecordToPO 写入排序用的 quality_rank
func (c *ContentConvertor) RecordToPO(e *entity.RenditionRecord) *po.RenditionRecord {
	return &po.RenditionRecord{
		AssetID:     e.ContentID(),
		Quality:     string(e.Quality()),
		QualityRank: e.Quality().Rank(),
		Status:      string(e.Status()),
		Locator:     e.Locator(),
		SizeBytes:   e.SizeBytes(),
	}
}

// RecordsToEntities 批量转换
func (c *ContentConvertor) RecordsToEntities(list []*po.RenditionRecord) []*entity.RenditionRecord {
	out := make([]*entity.RenditionRecord, 0, len(list))
	for _, p := range list {
		out = append(out, c.RecordToEntity(p))
	}
	return out
}
