package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// InsurancePlan is a catalog entry managed by the back office and
// read-only to the purchase flow.
type InsurancePlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string          `gorm:"type:varchar(255)" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       float64         `gorm:"type:decimal(15,2)" json:"price"`
	Features    json.RawMessage `gorm:"type:jsonb" json:"features"` // list of feature strings

	IsActive       bool   `gorm:"default:true" json:"is_active"`
	ProviderPlanID string `gorm:"type:varchar(100)" json:"provider_plan_id"`
}
