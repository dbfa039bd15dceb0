package po

import "time"

// BaseModel 公共字段
type BaseModel struct {
	Id        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// AllModels 需要迁移的表
func AllModels() []interface{} {
	return []interface{}{
		&ContentAsset{},
		&RenditionRecord{},
		&Subscription{},
		&Purchase{},
	}
}
