package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon grants a percentage discount on a plan purchase. Unknown or
// inactive codes are treated as a 0% discount, never as an error.
type Coupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code            string  `gorm:"type:varchar(50);uniqueIndex" json:"code"`
	DiscountPercent float64 `gorm:"type:decimal(5,2)" json:"discount_percent"`
	IsActive        bool    `gorm:"default:true" json:"is_active"`
}

// Apply returns the price after the coupon's discount, rounded to cents.
func (c Coupon) Apply(price float64) float64 {
	discounted := price * (1 - c.DiscountPercent/100)
	return float64(int64(discounted*100+0.5)) / 100
}
