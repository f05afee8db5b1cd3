package repository

import (
	"context"
	"errors"

	"github.com/timmy/memeforge/internal/domain"
	"gorm.io/gorm"
)

// SavedMemeRepository handles saved meme data operations.
type SavedMemeRepository struct {
	db *gorm.DB
}

// NewSavedMemeRepository creates a new SavedMemeRepository.
func NewSavedMemeRepository(db *gorm.DB) *SavedMemeRepository {
	return &SavedMemeRepository{db: db}
}

// Transaction runs fn with a repository bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *SavedMemeRepository) Transaction(ctx context.Context, fn func(repo *SavedMemeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SavedMemeRepository{db: tx})
	})
}

// Create inserts a new saved meme record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *SavedMemeRepository) Create(ctx context.Context, meme *domain.SavedMeme) error {
	return r.db.WithContext(ctx).Omit("Template").Create(meme).Error
}

// GetByID retrieves a saved meme by its ID. Returns ErrNotFound when absent.
func (r *SavedMemeRepository) GetByID(ctx context.Context, id string) (*domain.SavedMeme, error) {
	var meme domain.SavedMeme
	if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &meme, nil
}

// Count returns the number of saved memes.
func (r *SavedMemeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.SavedMeme{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
