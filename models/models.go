package models

import (
	"time"

	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// Article is one feed entry. Content always holds sanitizer output; the
// untrusted body is kept in RawContent so the article can be cleaned again
// when the policy changes.
type Article struct {
	ID                string         `gorm:"primaryKey;type:varchar(25)" json:"id"`
	FeedID            string         `gorm:"type:varchar(64);index;not null" json:"feed_id"`
	Title             string         `gorm:"not null" json:"title"`
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`
	Link              string         `json:"link"`
	Author            string         `json:"author"`
	RawContent        string         `gorm:"type:text" json:"-"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	Excerpt           string         `gorm:"type:varchar(200)" json:"excerpt"` // Plain text excerpt
	PolicyFingerprint string         `gorm:"type:varchar(64);index" json:"-"`
	Truncated         bool           `gorm:"default:false" json:"truncated"`
	PublishedAt       time.Time      `gorm:"index" json:"published_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate CUID
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	a.EnsureID()
	return nil
}

// EnsureID assigns a CUID when the article has none yet.
func (a *Article) EnsureID() {
	if a.ID == "" {
		a.ID = cuid.New()
	}
}
