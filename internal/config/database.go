package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"alfredoptarigan/profile-matcher/internal/models"
)

// InitDatabase opens the Postgres pool and migrates the document and
// embedding job tables.
func InitDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	log = log.Named("database")

	level := gormlogger.Warn
	if cfg.Server.Env == "development" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	ApplyPoolSettings(sqlDB, cfg.Database)

	log.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
	)

	if err := db.AutoMigrate(&models.Document{}, &models.EmbeddingJob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database migration completed")

	return db, nil
}

type connPool interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

// ApplyPoolSettings copies the non-zero pool limits onto the connection pool.
func ApplyPoolSettings(pool connPool, cfg DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
