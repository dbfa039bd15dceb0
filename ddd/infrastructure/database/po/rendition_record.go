package po

// RenditionRecord 清晰度记录表
type RenditionRecord struct {
	BaseModel
	AssetID     string `gorm:"column:asset_id;type:varchar(36);index" json:"asset_id"`
	Quality     string `gorm:"column:quality;type:varchar(10)" json:"quality"`
	QualityRank int    `gorm:"column:quality_rank" json:"quality_rank"`
	Status      string `gorm:"column:status;type:varchar(20);index" json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED
	Locator     string `gorm:"column:locator;type:varchar(1024)" json:"locator"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`
}

// TableName 指定表名
func (RenditionRecord) TableName() string {
	return "rendition_records"
}
