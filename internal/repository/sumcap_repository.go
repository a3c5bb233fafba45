package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haeli05/yields.to/internal/models"
)

// SumcapRepository інтерфейс для знімків SumCap endpoints
type SumcapRepository interface {
	UpsertSnapshots(snapshots []models.EndpointSnapshot) error
	GetSnapshotsAt(ts time.Time) ([]models.EndpointSnapshot, error)
	GetLatestByEndpoint(endpoint string) (*models.EndpointSnapshot, error)
}

// SumcapRepositoryImpl implementation
type SumcapRepositoryImpl struct {
	db *gorm.DB
}

// NewSumcapRepository створює новий sumcap repository
func NewSumcapRepository(db *gorm.DB) SumcapRepository {
	return &SumcapRepositoryImpl{db: db}
}

// UpsertSnapshots вставляє рядки endpoints, конфлікт по (ts, endpoint)
func (r *SumcapRepositoryImpl) UpsertSnapshots(snapshots []models.EndpointSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ts"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "ok", "payload", "updated_at",
		}),
	}).Create(&snapshots).Error
}

// GetSnapshotsAt отримує всі знімки endpoints за годину
func (r *SumcapRepositoryImpl) GetSnapshotsAt(ts time.Time) ([]models.EndpointSnapshot, error) {
	var snapshots []models.EndpointSnapshot
	err := r.db.Where("ts = ?", ts).Order("endpoint ASC").Find(&snapshots).Error
	return snapshots, err
}

// GetLatestByEndpoint отримує найсвіжіший знімок endpoint
func (r *SumcapRepositoryImpl) GetLatestByEndpoint(endpoint string) (*models.EndpointSnapshot, error) {
	var snapshot models.EndpointSnapshot
	err := r.db.Where("endpoint = ?", endpoint).Order("ts DESC").First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
