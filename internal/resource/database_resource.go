package resource

import (
	"sync"

	"gorm.io/gorm"

	"vod-service/ddd/infrastructure/database/persistence"
	"vod-service/pkg/assert"
	"vod-service/pkg/config"
	"vod-service/pkg/logger"
	"vod-service/pkg/manager"
	"vod-service/pkg/repository"
)

var (
	databaseResourceOnce      sync.Once
	singletonDatabaseResource *DatabaseResource
)

// DatabaseResource 主库连接
type DatabaseResource struct {
	db *repository.Database
}

// DefaultDatabaseResource 获取数据库资源单例
func DefaultDatabaseResource() *DatabaseResource {
	assert.NotCircular()
	databaseResourceOnce.Do(func() {
		singletonDatabaseResource = &DatabaseResource{}
	})
	assert.NotNil(singletonDatabaseResource)
	return singletonDatabaseResource
}

// MustOpen 打开连接，auto_migrate 开启时同步表结构
func (r *DatabaseResource) MustOpen() {
	if r.db != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before DatabaseResource")
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		panic("failed to open database: " + err.Error())
	}
	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(db.Self); err != nil {
			panic("failed to migrate database: " + err.Error())
		}
		logger.Infof("Database schema migrated driver=%s", cfg.Database.Driver)
	}
	r.db = db
}

// MainDB 主库 gorm 句柄
func (r *DatabaseResource) MainDB() *gorm.DB {
	if r.db == nil {
		return nil
	}
	return r.db.Self
}

func (r *DatabaseResource) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// DatabaseResourcePlugin 数据库资源插件
type DatabaseResourcePlugin struct{}

func (p *DatabaseResourcePlugin) Name() string { return "databaseResource" }

func (p *DatabaseResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultDatabaseResource()
}
