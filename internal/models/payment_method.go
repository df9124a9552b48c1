package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentType is the billing channel used for a charge
type PaymentType string

const (
	PaymentTypeBoleto     PaymentType = "BOLETO"
	PaymentTypeCreditCard PaymentType = "CREDIT_CARD"
)

// PaymentMethod stores masked card metadata (or a boleto marker) for a
// user. One row exists per (user, type) pair and is upserted whenever a
// payment of that type is processed.
type PaymentMethod struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint        `gorm:"uniqueIndex:idx_payment_methods_user_type" json:"user_id"`
	Type   PaymentType `gorm:"type:varchar(20);uniqueIndex:idx_payment_methods_user_type" json:"type"`

	CardLastFour string `gorm:"type:varchar(4)" json:"card_last_four"`
	CardBrand    string `gorm:"type:varchar(50)" json:"card_brand"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
