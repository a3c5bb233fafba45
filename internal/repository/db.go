package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/haeli05/yields.to/internal/config"
	"github.com/haeli05/yields.to/internal/models"
)

// InitDatabase відкриває з'єднання з Postgres.
// Повертає (nil, nil) коли сховище не налаштоване: read-шляхи
// працюють без нього, write-шляхи перевіряють наявність самі.
func InitDatabase(cfg config.DatabaseConfig, app config.AppConfig) (*gorm.DB, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)

	var logLevel logger.LogLevel
	if app.Environment == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, _ := db.DB()
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 20
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if pingErr := sqlDB.Ping(); pingErr != nil {
		return nil, pingErr
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PoolSnapshot{},
		&models.AggregateSnapshot{},
		&models.EndpointSnapshot{},
		&models.HealthCheck{},
		&models.ProjectSubmission{},
	)
}

func CloseDatabase(db *gorm.DB) error {
	sqlDB, _ := db.DB()
	return sqlDB.Close()
}
