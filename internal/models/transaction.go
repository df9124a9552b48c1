package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction statuses mirror the billing provider's payment statuses.
const (
	TransactionStatusPending        = "PENDING"
	TransactionStatusConfirmed      = "CONFIRMED"
	TransactionStatusReceived       = "RECEIVED"
	TransactionStatusReceivedInCash = "RECEIVED_IN_CASH"
	TransactionStatusOverdue        = "OVERDUE"
	TransactionStatusRefunded       = "REFUNDED"
	TransactionStatusDeleted        = "PAYMENT_DELETED"
	TransactionStatusChargeback     = "CHARGEBACK_REQUESTED"
)

// Transaction records a single payment attempt. Rows are append-only: a
// retried purchase creates a new row, never rewrites an old one. Plan name
// and price are denormalized so the record survives later plan edits.
type Transaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID          uint `gorm:"index;uniqueIndex:idx_transactions_user_idem" json:"user_id"`
	InsuranceID     uint `gorm:"index" json:"insurance_id"`
	PaymentMethodID uint `gorm:"index" json:"payment_method_id"`

	ProviderPaymentID string `gorm:"type:varchar(100);index" json:"provider_payment_id"`
	// Unique per user, not globally: two customers may pick the same
	// client-chosen key without seeing each other's transactions.
	IdempotencyKey string `gorm:"type:varchar(100);uniqueIndex:idx_transactions_user_idem" json:"idempotency_key"`

	Status         string      `gorm:"type:varchar(50)" json:"status"`
	Type           PaymentType `gorm:"type:varchar(20)" json:"type"`
	Amount         float64     `gorm:"type:decimal(15,2)" json:"amount"`
	OriginalAmount float64     `gorm:"type:decimal(15,2)" json:"original_amount"`
	CouponCode     string      `gorm:"type:varchar(50)" json:"coupon_code"`

	PlanName  string  `gorm:"type:varchar(255)" json:"plan_name"`
	PlanPrice float64 `gorm:"type:decimal(15,2)" json:"plan_price"`

	BoletoURL     string     `gorm:"type:text" json:"boleto_url"`
	BoletoBarcode string     `gorm:"type:text" json:"boleto_barcode"`
	DueDate       *time.Time `json:"due_date"`

	// Relationships
	User          User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Insurance     Insurance     `gorm:"foreignKey:InsuranceID" json:"insurance,omitempty"`
	PaymentMethod PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
}

// IsSettled reports whether the provider considers the charge paid.
func (t Transaction) IsSettled() bool {
	switch t.Status {
	case TransactionStatusConfirmed, TransactionStatusReceived, TransactionStatusReceivedInCash:
		return true
	}
	return false
}
