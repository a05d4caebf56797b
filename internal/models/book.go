package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is one catalog title shown on the public site.
type Book struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	ISBN        string     `gorm:"size:32" json:"isbn,omitempty"`
	CoverURL    string     `gorm:"size:512" json:"cover_url,omitempty"`
	BuyLink     string     `gorm:"size:512" json:"buy_link,omitempty"`
	Published   bool       `gorm:"default:false;index" json:"published"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
