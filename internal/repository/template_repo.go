package repository

import (
	"context"
	"errors"

	"github.com/timmy/memeforge/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// TemplateRepository handles meme template data operations.
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new TemplateRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *TemplateRepository: repository instance bound to db.
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Upsert creates a template or refreshes the row sharing its external ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tpl: template to create or update.
// Returns:
//   - error: non-nil if the write fails.
func (r *TemplateRepository) Upsert(ctx context.Context, tpl *domain.Template) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "image_key", "image_url", "url", "is_gif", "is_sticker", "category", "width", "height",
		}),
	}).Create(tpl).Error
}

// GetByExternalID retrieves a template by its provider-assigned ID.
// Returns ErrNotFound when no template matches.
func (r *TemplateRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Template, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

// GetByURL retrieves the template whose external or stored image URL equals url.
// Returns ErrNotFound when no template matches.
func (r *TemplateRepository) GetByURL(ctx context.Context, url string) (*domain.Template, error) {
	return r.first(ctx, "url = ? OR image_url = ?", url, url)
}

// ExistsByExternalID checks whether a template was already imported.
func (r *TemplateRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Template{}).
		Where("external_id = ?", externalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves templates, newest first, optionally filtered by category.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - category: category to filter by; empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Template: matching templates.
//   - error: non-nil if the query fails.
func (r *TemplateRepository) List(ctx context.Context, category string, limit, offset int) ([]domain.Template, error) {
	var templates []domain.Template
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Count counts templates, optionally filtered by category.
func (r *TemplateRepository) Count(ctx context.Context, category string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Template{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TemplateRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.Template, error) {
	var tpl domain.Template
	if err := r.db.WithContext(ctx).Where(query, args...).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}
