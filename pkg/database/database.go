package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化导出状态数据库连接
// driver: sqlite 或 postgres
// dsn: sqlite 为文件路径 (":memory:" 用于测试)，postgres 为连接串
// models: 需要自动建表/迁移的结构体指针
func InitDB(driver, dsn string, models ...interface{}) (*gorm.DB, error) {
	dbLogger := logger.Default.LogMode(logger.Warn)

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 SQL DB 失败: %w", err)
	}

	// 离线批处理是单写入者，小连接池即可
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("自动建表出错: %w", err)
		}
	}

	return db, nil
}

// MustInitDB InitDB 的 Fatal 包装，供 cmd 入口使用
func MustInitDB(driver, dsn string, models ...interface{}) *gorm.DB {
	db, err := InitDB(driver, dsn, models...)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	return db
}
