package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/chirp/config"
	"github.com/d60-Lab/chirp/internal/model"
)

// InitDB 按配置打开数据库并自动迁移全部模型
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	case "postgres", "":
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	return Open(dialector, logLevel, func(sqlDB *sql.DB) {
		if cfg.Database.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	})
}

// Open 打开数据库（UTC 微秒时间戳），调整连接池并迁移表结构
func Open(dialector gorm.Dialector, level gormlogger.LogLevel, tune func(*sql.DB)) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: model.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if tune != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		tune(sqlDB)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory 打开一个独立命名的 sqlite 内存库，测试与基准使用
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return Open(sqlite.Open(dsn), gormlogger.Silent, func(sqlDB *sql.DB) {
		// 单连接，避免共享缓存下的表锁冲突
		sqlDB.SetMaxOpenConns(1)
	})
}
