package entity

import (
	"time"

	"vod-service/ddd/domain/vo"
)

// RenditionRecord 单个清晰度的产出记录
type RenditionRecord struct {
	id        uint64
	contentID string
	quality   vo.Quality
	status    vo.EncodingStatus
	locator   string
	sizeBytes int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRenditionRecord 创建记录
func NewRenditionRecord(contentID string, quality vo.Quality, status vo.EncodingStatus, locator string, sizeBytes int64) *RenditionRecord {
	now := time.Now()
	return &RenditionRecord{
		contentID: contentID,
		quality:   quality,
		status:    status,
		locator:   locator,
		sizeBytes: sizeBytes,
		createdAt: now,
		updatedAt: now,
	}
}

// NewPlaceholderRecord 入队或申请上传时写入的占位记录
func NewPlaceholderRecord(contentID string) *RenditionRecord {
	return NewRenditionRecord(contentID, vo.MidTierQuality(), vo.EncodingPending, "", 0)
}

// RestoreRenditionRecord 从持久化数据重建
func RestoreRenditionRecord(id uint64, contentID string, quality vo.Quality, status vo.EncodingStatus, locator string, sizeBytes int64, createdAt, updatedAt time.Time) *RenditionRecord {
	return &RenditionRecord{
		id:        id,
		contentID: contentID,
		quality:   quality,
		status:    status,
		locator:   locator,
		sizeBytes: sizeBytes,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *RenditionRecord) ID() uint64                { return r.id }
func (r *RenditionRecord) ContentID() string         { return r.contentID }
func (r *RenditionRecord) Quality() vo.Quality       { return r.quality }
func (r *RenditionRecord) Status() vo.EncodingStatus { return r.status }
func (r *RenditionRecord) Locator() string           { return r.locator }
func (r *RenditionRecord) SizeBytes() int64          { return r.sizeBytes }
func (r *RenditionRecord) CreatedAt() time.Time      { return r.createdAt }
func (r *RenditionRecord) UpdatedAt() time.Time      { return r.updatedAt }

// Statuses 提取状态集合
func Statuses(records []*RenditionRecord) []vo.EncodingStatus {
	out := make([]vo.EncodingStatus, 0, len(records))
	for _, r := range records {
		out = append(out, r.status)
	}
	return out
}

// CompletedQualities 已完成的清晰度，从高到低
func CompletedQualities(records []*RenditionRecord) []vo.Quality {
	qs := make([]vo.Quality, 0, len(records))
	for _, r := range records {
		if r.status == vo.EncodingCompleted {
			qs = append(qs, r.quality)
		}
	}
	return vo.SortQualitiesDesc(qs)
}

// AllCompleted 非空且全部完成
func AllCompleted(records []*RenditionRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, r := range records {
		if r.status != vo.EncodingCompleted {
			return false
		}
	}
	return true
}

// CompletedRecords 构造一组完成记录，总大小平均分摊
func CompletedRecords(contentID string, qualities []vo.Quality, locator string, totalSize int64) []*RenditionRecord {
	if len(qualities) == 0 {
		return nil
	}
	per := totalSize / int64(len(qualities))
	out := make([]*RenditionRecord, 0, len(qualities))
	for _, q := range qualities {
		out = append(out, NewRenditionRecord(contentID, q, vo.EncodingCompleted, locator, per))
	}
	return out
}
