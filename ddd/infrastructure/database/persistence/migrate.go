package persistence

import (
	"gorm.io/gorm"

	"vod-service/ddd/infrastructure/database/po"
)

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(po.AllModels()...)
}
