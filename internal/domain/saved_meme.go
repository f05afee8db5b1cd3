package domain

import "time"

// SavedMeme is a user-produced composite image plus its caption metadata.
// Records are created once and never updated.
type SavedMeme struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	TemplateID  *string   `gorm:"type:text;index:idx_saved_memes_template" json:"template_id,omitempty"`
	Template    *Template `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TemplateURL string    `gorm:"type:text" json:"template_url,omitempty"`
	ImageKey    string    `gorm:"type:text;not null" json:"image_key"`
	ImageURL    string    `gorm:"type:text;not null" json:"image_url"`
	TopText     string    `gorm:"type:varchar(200)" json:"top_text"`
	BottomText  string    `gorm:"type:varchar(200)" json:"bottom_text"`
	Font        string    `gorm:"type:varchar(50)" json:"font"`
	TextColor   string    `gorm:"type:varchar(10)" json:"text_color"`
	Format      string    `gorm:"type:text" json:"format"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `gorm:"index:idx_saved_memes_created" json:"created_at"`
}

// TableName returns the database table name for SavedMeme.
func (SavedMeme) TableName() string {
	return "saved_memes"
}
