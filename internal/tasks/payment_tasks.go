package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"medsafe_app/internal/models"
)

// TaskExpireStaleBoletos is the name of the recurring sweep that marks
// unpaid boletos past their due date as overdue.
const TaskExpireStaleBoletos = "expire_stale_boletos"

// ExpireStaleBoletosHandler marks pending boleto transactions past their
// due date as OVERDUE and cancels the linked insurance when it is still
// waiting on that payment. Policies already advanced by another settled
// charge are left alone.
func ExpireStaleBoletosHandler(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	now := time.Now()

	var stale []models.Transaction
	err := db.WithContext(ctx).
		Where("type = ? AND status = ? AND due_date < ?",
			models.PaymentTypeBoleto, models.TransactionStatusPending, now).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}

	if len(stale) == 0 {
		return map[string]interface{}{"status": "success", "expired_count": 0}, nil
	}

	expired := 0
	for _, transaction := range stale {
		if ctx.Err() != nil {
			break
		}

		transaction.Status = models.TransactionStatusOverdue
		if err := db.Save(&transaction).Error; err != nil {
			log.Printf("Failed to expire transaction %d: %v", transaction.ID, err)
			continue
		}
		expired++

		var insurance models.Insurance
		if err := db.First(&insurance, transaction.InsuranceID).Error; err != nil {
			continue
		}
		if insurance.Status != models.InsuranceStatusPendingPayment {
			continue
		}

		// A newer settled transaction keeps the policy alive even if this
		// boleto lapsed.
		var settledCount int64
		db.Model(&models.Transaction{}).
			Where("insurance_id = ? AND status IN ?", insurance.ID, []string{
				models.TransactionStatusConfirmed,
				models.TransactionStatusReceived,
				models.TransactionStatusReceivedInCash,
			}).
			Count(&settledCount)
		if settledCount > 0 {
			continue
		}

		if err := insurance.Transition(models.InsuranceStatusCanceled); err != nil {
			log.Printf("Skipped canceling insurance %d: %v", insurance.ID, err)
			continue
		}
		if err := db.Save(&insurance).Error; err != nil {
			log.Printf("Failed to cancel insurance %d: %v", insurance.ID, err)
		}
	}

	return map[string]interface{}{
		"status":        "success",
		"expired_count": expired,
	}, nil
}
