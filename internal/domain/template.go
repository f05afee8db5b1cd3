package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DefaultCategory is the bucket used when a template has no category.
const DefaultCategory = "general"

// ErrTemplateSourceMissing is returned when a template has neither a stored
// image nor an external URL.
var ErrTemplateSourceMissing = errors.New("template requires an image or an external url")

// TemplateSummary is the normalized shape of a trending template as served to clients.
type TemplateSummary struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Template is a reusable meme base image, backed either by a stored file
// (ImageKey) or by an external URL.
type Template struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	ExternalID *string   `gorm:"type:text;uniqueIndex:idx_templates_external" json:"external_id,omitempty"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	ImageKey   string    `gorm:"type:text" json:"image_key,omitempty"`
	ImageURL   string    `gorm:"type:text" json:"image_url,omitempty"`
	URL        string    `gorm:"type:text;index:idx_templates_url" json:"url,omitempty"`
	IsGIF      bool      `gorm:"default:false" json:"is_gif"`
	IsSticker  bool      `gorm:"default:false" json:"is_sticker"`
	Category   string    `gorm:"type:varchar(50);index:idx_templates_category" json:"category"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Template.
func (Template) TableName() string {
	return "meme_templates"
}

// BeforeSave enforces the image-or-url invariant and the category default.
func (t *Template) BeforeSave(tx *gorm.DB) error {
	if t.ImageKey == "" && t.URL == "" {
		return ErrTemplateSourceMissing
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	return nil
}

// Summary projects the template into the client-facing shape.
func (t *Template) Summary() TemplateSummary {
	id := t.ID
	if t.ExternalID != nil {
		id = *t.ExternalID
	}
	url := t.ImageURL
	if url == "" {
		url = t.URL
	}
	return TemplateSummary{ID: id, URL: url, Name: t.Name}
}
