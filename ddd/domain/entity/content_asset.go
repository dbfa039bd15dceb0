package entity

import (
	"time"

	"vod-service/ddd/domain/vo"
)

// LifecycleStatus 内容发布状态
type LifecycleStatus string

const (
	LifecycleDraft     LifecycleStatus = "draft"
	LifecyclePublished LifecycleStatus = "published"
	LifecycleArchived  LifecycleStatus = "archived"
)

// ContentAsset 内容实体。由内容服务创建，本服务只更新编码相关字段
type ContentAsset struct {
	id              string
	title           string
	description     string
	status          LifecycleStatus
	free            bool
	price           int64 // 分
	durationSeconds int
	thumbnailURL    string
	provider        vo.ProviderTag
	providerAssetID string
	createdAt       time.Time
	updatedAt       time.Time
}

// ContentAssetAttrs 重建实体用的属性集合
type ContentAssetAttrs struct {
	ID              string
	Title           string
	Description     string
	Status          LifecycleStatus
	Free            bool
	Price           int64
	DurationSeconds int
	ThumbnailURL    string
	Provider        vo.ProviderTag
	ProviderAssetID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RestoreContentAsset 从持久化数据重建实体
func RestoreContentAsset(a ContentAssetAttrs) *ContentAsset {
	return &ContentAsset{
		id:              a.ID,
		title:           a.Title,
		description:     a.Description,
		status:          a.Status,
		free:            a.Free,
		price:           a.Price,
		durationSeconds: a.DurationSeconds,
		thumbnailURL:    a.ThumbnailURL,
		provider:        a.Provider,
		providerAssetID: a.ProviderAssetID,
		createdAt:       a.CreatedAt,
		updatedAt:       a.UpdatedAt,
	}
}

// Getters
func (c *ContentAsset) ID() string                 { return c.id }
func (c *ContentAsset) Title() string              { return c.title }
func (c *ContentAsset) Description() string        { return c.description }
func (c *ContentAsset) Status() LifecycleStatus    { return c.status }
func (c *ContentAsset) IsFree() bool               { return c.free }
func (c *ContentAsset) Price() int64               { return c.price }
func (c *ContentAsset) DurationSeconds() int       { return c.durationSeconds }
func (c *ContentAsset) ThumbnailURL() string       { return c.thumbnailURL }
func (c *ContentAsset) Provider() vo.ProviderTag   { return c.provider }
func (c *ContentAsset) ProviderAssetID() string    { return c.providerAssetID }
func (c *ContentAsset) CreatedAt() time.Time       { return c.createdAt }
func (c *ContentAsset) UpdatedAt() time.Time       { return c.updatedAt }
func (c *ContentAsset) IsPublished() bool          { return c.status == LifecyclePublished }
func (c *ContentAsset) IsCDN() bool                { return c.provider == vo.ProviderCDN }
func (c *ContentAsset) HasProviderReference() bool { return c.providerAssetID != "" }

// LinkLocal 本地转码完成后关联产物
func (c *ContentAsset) LinkLocal(durationSeconds int) {
	c.provider = vo.ProviderLocal
	c.providerAssetID = vo.LocalProviderRef(c.id)
	c.durationSeconds = durationSeconds
	c.touch()
}

// LinkCDN 关联外部编码服务上的视频
func (c *ContentAsset) LinkCDN(remoteID string) {
	c.provider = vo.ProviderCDN
	c.providerAssetID = remoteID
	c.touch()
}

// ResetProvider 删除视频后清空编码相关字段
func (c *ContentAsset) ResetProvider() {
	c.provider = vo.ProviderNone
	c.providerAssetID = ""
	c.durationSeconds = 0
	c.thumbnailURL = ""
	c.touch()
}

// SetThumbnailURL 更新封面地址
func (c *ContentAsset) SetThumbnailURL(url string) {
	c.thumbnailURL = url
	c.touch()
}

// BackfillMedia 仅在字段为空时补全时长与封面，返回是否有变化
func (c *ContentAsset) BackfillMedia(durationSeconds int, thumbnailURL string) bool {
	changed := false
	if c.durationSeconds == 0 && durationSeconds > 0 {
		c.durationSeconds = durationSeconds
		changed = true
	}
	if c.thumbnailURL == "" && thumbnailURL != "" {
		c.thumbnailURL = thumbnailURL
		changed = true
	}
	if changed {
		c.touch()
	}
	return changed
}

func (c *ContentAsset) touch() {
	c.updatedAt = time.Now()
}
