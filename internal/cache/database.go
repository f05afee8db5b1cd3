package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/memeforge/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database is a Cache shared by every process pointed at the same database.
// Rows live in the cache_entries table (domain.CacheEntry).
type Database struct {
	db  *gorm.DB
	now Clock
}

var _ Cache = (*Database)(nil)

// NewDatabase creates a database-backed cache using the wall clock.
func NewDatabase(db *gorm.DB) *Database {
	return NewDatabaseWithClock(db, time.Now)
}

// NewDatabaseWithClock creates a database-backed cache using now for expiry.
func NewDatabaseWithClock(db *gorm.DB, now Clock) *Database {
	return &Database{db: db, now: now}
}

// Get returns the value under key if the row exists and has not expired.
func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry domain.CacheEntry
	err := d.db.WithContext(ctx).First(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if entry.IsExpired(d.now()) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set upserts the row for key. A non-positive ttl stores nothing.
func (d *Database) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := d.now()
	entry := domain.CacheEntry{
		Key:       key,
		Value:     cloneBytes(value),
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows whose TTL has elapsed and returns how many were removed.
func (d *Database) PurgeExpired(ctx context.Context) (int64, error) {
	res := d.db.WithContext(ctx).Where("expires_at <= ?", d.now()).Delete(&domain.CacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
