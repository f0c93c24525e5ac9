package models

import (
	"fmt"
	"time"

	"store-admin/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Document is a named JSON document replaced as a whole on every save.
type Document struct {
	Name      string    `gorm:"primaryKey;type:varchar(191)"`
	Body      string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// KVSlot backs session and audit slots when no redis is configured.
type KVSlot struct {
	Key       string     `gorm:"column:slot_key;primaryKey;type:varchar(191)"`
	Value     string     `gorm:"type:longtext;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// InitDB opens the configured database and migrates the storage tables.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Database.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLite.Path)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Database.MySQL.Username,
			cfg.Database.MySQL.Password,
			cfg.Database.MySQL.Host,
			cfg.Database.MySQL.Port,
			cfg.Database.MySQL.Database,
			cfg.Database.MySQL.Charset,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Type == "sqlite" {
		// SQLite doesn't support concurrent writers.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&Document{}, &KVSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
