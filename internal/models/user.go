package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleAdmin  UserRole = "Admin"
	UserRoleMember UserRole = "Member"
)

// User represents a customer (or back-office admin) in the system
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name  string `gorm:"type:varchar(255)" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	CPF   string `gorm:"type:varchar(20)" json:"cpf"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`

	PostalCode    string `gorm:"type:varchar(20)" json:"postal_code"`
	Address       string `gorm:"type:varchar(255)" json:"address"`
	AddressNumber string `gorm:"type:varchar(20)" json:"address_number"`
	City          string `gorm:"type:varchar(100)" json:"city"`
	State         string `gorm:"type:varchar(50)" json:"state"`

	// ProviderCustomerID caches the billing-provider customer id so the
	// customer is created at most once.
	ProviderCustomerID string `gorm:"type:varchar(100)" json:"provider_customer_id"`

	Role UserRole `gorm:"type:varchar(20);default:'Member'" json:"role"`

	// Relationships
	Insurance      *Insurance      `gorm:"foreignKey:UserID" json:"insurance,omitempty"`
	PaymentMethods []PaymentMethod `gorm:"foreignKey:UserID" json:"payment_methods,omitempty"`
	Transactions   []Transaction   `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
