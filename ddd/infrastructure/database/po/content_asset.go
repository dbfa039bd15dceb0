package po

// ContentAsset 内容表，编码相关字段由本服务维护
type ContentAsset struct {
	BaseModel
	ContentID       string `gorm:"column:content_id;type:varchar(36);uniqueIndex" json:"content_id"`
	Title           string `gorm:"column:title;type:varchar(255)" json:"title"`
	Description     string `gorm:"column:description;type:text" json:"description"`
	Status          string `gorm:"column:status;type:varchar(20);index" json:"status"` // draft, published, archived
	IsFree          bool   `gorm:"column:is_free" json:"is_free"`
	Price           int64  `gorm:"column:price" json:"price"`
	DurationSeconds int    `gorm:"column:duration_seconds" json:"duration_seconds"`
	ThumbnailURL    string `gorm:"column:thumbnail_url;type:varchar(512)" json:"thumbnail_url"`
	Provider        string `gorm:"column:provider;type:varchar(20);index" json:"provider"` // '', local, cdn
	ProviderAssetID string `gorm:"column:provider_asset_id;type:varchar(128);index" json:"provider_asset_id"`
}

// TableName 指定表名
func (ContentAsset) TableName() string {
	return "content_assets"
}
