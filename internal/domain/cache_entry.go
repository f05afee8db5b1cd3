package domain

import "time"

// CacheEntry is a row of the shared-store cache. Value is opaque to the
// database and replaced wholesale on every write.
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;type:varchar(191);primaryKey" json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `gorm:"index:idx_cache_entries_expires" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// IsExpired reports whether the entry is stale at the given instant.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
