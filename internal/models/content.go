package models

import (
	"time"

	"gorm.io/gorm"
)

// Slide is a carousel entry on the landing page, managed by the back office.
type Slide struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title    string `gorm:"type:varchar(255)" json:"title"`
	Text     string `gorm:"type:text" json:"text"`
	ImageURL string `gorm:"type:text" json:"image_url"`
	Position int    `gorm:"default:0" json:"position"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// ServiceBox is a highlighted service card on the landing page.
type ServiceBox struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title    string `gorm:"type:varchar(255)" json:"title"`
	Text     string `gorm:"type:text" json:"text"`
	ImageURL string `gorm:"type:text" json:"image_url"`
	LinkURL  string `gorm:"type:text" json:"link_url"`
	Position int    `gorm:"default:0" json:"position"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
