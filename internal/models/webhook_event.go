package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// WebhookEvent keeps an audit row for every provider callback received,
// whether or not it matched a local transaction.
type WebhookEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Provider          string          `gorm:"type:varchar(50);not null" json:"provider"`
	Event             string          `gorm:"type:varchar(100)" json:"event"`
	ProviderPaymentID string          `gorm:"type:varchar(100);index" json:"provider_payment_id"`
	Matched           bool            `gorm:"default:false" json:"matched"`
	Payload           json.RawMessage `gorm:"type:jsonb" json:"payload"`
}
