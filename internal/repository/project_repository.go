package repository

import (
	"gorm.io/gorm"

	"github.com/haeli05/yields.to/internal/models"
)

// ProjectRepository інтерфейс для заявок на додавання проєктів
type ProjectRepository interface {
	Create(submission *models.ProjectSubmission) error
	GetAll(limit, offset int) ([]models.ProjectSubmission, error)
}

// ProjectRepositoryImpl implementation
type ProjectRepositoryImpl struct {
	db *gorm.DB
}

// NewProjectRepository створює новий project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

// Create зберігає заявку
func (r *ProjectRepositoryImpl) Create(submission *models.ProjectSubmission) error {
	return r.db.Create(submission).Error
}

// GetAll отримує заявки, найновіші першими
func (r *ProjectRepositoryImpl) GetAll(limit, offset int) ([]models.ProjectSubmission, error) {
	var submissions []models.ProjectSubmission
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&submissions).Error
	return submissions, err
}
