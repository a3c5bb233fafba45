package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/haeli05/yields.to/internal/models"
)

// HealthRepository інтерфейс для результатів перевірок upstream
type HealthRepository interface {
	InsertChecks(checks []models.HealthCheck) error
	GetRecent(limit int) ([]models.HealthCheck, error)
	DeleteOld(before time.Time) error
}

// HealthRepositoryImpl implementation
type HealthRepositoryImpl struct {
	db *gorm.DB
}

// NewHealthRepository створює новий health repository
func NewHealthRepository(db *gorm.DB) HealthRepository {
	return &HealthRepositoryImpl{db: db}
}

// InsertChecks записує результати перевірок (append-only)
func (r *HealthRepositoryImpl) InsertChecks(checks []models.HealthCheck) error {
	if len(checks) == 0 {
		return nil
	}
	return r.db.Create(&checks).Error
}

// GetRecent отримує останні перевірки
func (r *HealthRepositoryImpl) GetRecent(limit int) ([]models.HealthCheck, error) {
	var checks []models.HealthCheck
	err := r.db.Order("created_at DESC").Limit(limit).Find(&checks).Error
	return checks, err
}

// DeleteOld видаляє старі перевірки
func (r *HealthRepositoryImpl) DeleteOld(before time.Time) error {
	return r.db.Where("created_at < ?", before).Delete(&models.HealthCheck{}).Error
}
