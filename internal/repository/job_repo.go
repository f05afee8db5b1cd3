package repository

import (
	"context"
	"errors"

	"github.com/timmy/memeforge/internal/domain"
	"gorm.io/gorm"
)

// ImportJobRepository persists import run records.
type ImportJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository creates a new ImportJobRepository.
func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create inserts a new job.
func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update saves every column of job.
func (r *ImportJobRepository) Update(ctx context.Context, job *domain.ImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a job by ID. Returns ErrNotFound when none matches.
func (r *ImportJobRepository) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the newest jobs first.
func (r *ImportJobRepository) ListRecent(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	var jobs []domain.ImportJob
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
