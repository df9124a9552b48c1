package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"gorm.io/gorm"

	"medsafe_app/internal/apperrors"
	"medsafe_app/internal/models"
)

// WebhookNotification is the canonical callback contract: the provider
// reports a payment id and its new status.
type WebhookNotification struct {
	Event   string `json:"event"`
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
}

type WebhookService struct {
	db *gorm.DB
}

func NewWebhookService(db *gorm.DB) *WebhookService {
	return &WebhookService{db: db}
}

// successStatuses advance the policy out of PENDING_PAYMENT; failureStatuses
// cancel it. Anything else only updates the transaction row.
var successStatuses = map[string]bool{
	models.TransactionStatusConfirmed:      true,
	models.TransactionStatusReceived:       true,
	models.TransactionStatusReceivedInCash: true,
}

var failureStatuses = map[string]bool{
	models.TransactionStatusRefunded:   true,
	models.TransactionStatusDeleted:    true,
	models.TransactionStatusChargeback: true,
	models.TransactionStatusOverdue:    true,
}

// HandleNotification records the raw event, matches the provider payment id
// against the transaction ledger and cascades the status to the linked
// insurance. Unknown payment ids are acknowledged without mutating anything
// so the provider stops retrying.
func (s *WebhookService) HandleNotification(ctx context.Context, rawPayload []byte, notification WebhookNotification) error {
	event := models.WebhookEvent{
		Provider:          "billing",
		Event:             notification.Event,
		ProviderPaymentID: notification.Payment.ID,
		Payload:           json.RawMessage(rawPayload),
	}

	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Where("provider_payment_id = ?", notification.Payment.ID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Webhook for unknown payment %s, recording and ignoring", notification.Payment.ID)
			if err := s.db.Create(&event).Error; err != nil {
				log.Printf("Failed to record webhook event for payment %s: %v", notification.Payment.ID, err)
			}
			return nil
		}
		return apperrors.NewInternalError("failed to look up transaction for webhook", err)
	}

	event.Matched = true
	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("Failed to record webhook event for payment %s: %v", notification.Payment.ID, err)
	}

	transaction.Status = notification.Payment.Status
	if err := s.db.Save(&transaction).Error; err != nil {
		return apperrors.NewInternalError("failed to update transaction status", err)
	}

	s.cascadeInsurance(&transaction, notification.Payment.Status)
	return nil
}

// cascadeInsurance applies the payment outcome to the linked policy.
// Transition rejections are logged, not propagated: a duplicate or late
// callback must not bounce back to the provider as an error.
func (s *WebhookService) cascadeInsurance(transaction *models.Transaction, status string) {
	var insurance models.Insurance
	if err := s.db.First(&insurance, transaction.InsuranceID).Error; err != nil {
		log.Printf("Webhook matched transaction %d but insurance %d is missing: %v",
			transaction.ID, transaction.InsuranceID, err)
		return
	}

	var target models.InsuranceStatus
	switch {
	case successStatuses[status]:
		if insurance.Status != models.InsuranceStatusPendingPayment {
			return // already past payment, nothing to advance
		}
		target = models.InsuranceStatusPendingDocument
	case failureStatuses[status]:
		// A lapsed boleto only takes down a policy still waiting on it;
		// refunds and chargebacks void the policy regardless.
		if status == models.TransactionStatusOverdue &&
			insurance.Status != models.InsuranceStatusPendingPayment {
			return
		}
		target = models.InsuranceStatusCanceled
	default:
		return
	}

	if err := insurance.Transition(target); err != nil {
		log.Printf("Webhook skipped insurance %d: %v", insurance.ID, err)
		return
	}
	if err := s.db.Save(&insurance).Error; err != nil {
		log.Printf("Failed to save insurance %d after webhook: %v", insurance.ID, err)
	}
}
