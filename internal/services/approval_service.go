package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"medsafe_app/internal/apperrors"
	"medsafe_app/internal/models"
)

// ContractMailer is the slice of EmailService the approval gate uses.
type ContractMailer interface {
	SendEmailWithAttachment(to []string, subject, body, filename string, file []byte) error
}

// ApprovalService models the manual review step after payment:
// PENDING_PAYMENT -> PENDING_DOCUMENT -> PENDING_APPROVAL -> ACTIVE|CANCELED.
type ApprovalService struct {
	db              *gorm.DB
	mailer          ContractMailer
	operationsEmail string
}

func NewApprovalService(db *gorm.DB, mailer ContractMailer) *ApprovalService {
	return &ApprovalService{
		db:              db,
		mailer:          mailer,
		operationsEmail: os.Getenv("OPERATIONS_EMAIL"),
	}
}

// UploadContract forwards a signed contract to the operations inbox and, if
// the user's policy is waiting on the document, advances it to
// PENDING_APPROVAL. A missing user or a policy in any other state only
// logs; the upload itself still succeeds from the caller's point of view.
func (s *ApprovalService) UploadContract(ctx context.Context, userEmail string, planID, transactionID uint, filename string, file []byte) error {
	subject := fmt.Sprintf("Contrato assinado - %s (plano %d, transacao %d)", userEmail, planID, transactionID)
	body := fmt.Sprintf("Contrato enviado por %s para o plano %d, transacao %d.", userEmail, planID, transactionID)

	if s.operationsEmail == "" {
		return apperrors.NewConfigurationError("OPERATIONS_EMAIL is not set")
	}
	if err := s.mailer.SendEmailWithAttachment([]string{s.operationsEmail}, subject, body, filename, file); err != nil {
		return apperrors.NewInternalError("failed to forward contract", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", userEmail).First(&user).Error; err != nil {
		log.Printf("Contract uploaded for unknown user %s, status untouched", userEmail)
		return nil
	}

	var insurance models.Insurance
	if err := s.db.Where("user_id = ?", user.ID).First(&insurance).Error; err != nil {
		log.Printf("Contract uploaded but user %d has no insurance, status untouched", user.ID)
		return nil
	}

	if insurance.Status != models.InsuranceStatusPendingDocument {
		log.Printf("Contract uploaded for insurance %d in status %s, status untouched", insurance.ID, insurance.Status)
		return nil
	}

	if err := insurance.Transition(models.InsuranceStatusPendingApproval); err != nil {
		log.Printf("Contract upload could not advance insurance %d: %v", insurance.ID, err)
		return nil
	}
	if err := s.db.Save(&insurance).Error; err != nil {
		return apperrors.NewInternalError("failed to advance insurance after contract upload", err)
	}
	return nil
}

// PendingApproval is one back-office queue entry.
type PendingApproval struct {
	ID       uint                   `json:"id"`
	PlanName string                 `json:"plan"`
	Status   models.InsuranceStatus `json:"status"`
	User     struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// ListPendingApprovals returns every policy still in a pending state,
// oldest first, joined with the owner's name and email.
func (s *ApprovalService) ListPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	var insurances []models.Insurance
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("status IN ?", models.PendingStatuses).
		Order("created_at asc").
		Find(&insurances).Error
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list pending approvals", err)
	}

	result := make([]PendingApproval, 0, len(insurances))
	for _, ins := range insurances {
		entry := PendingApproval{ID: ins.ID, PlanName: ins.PlanName, Status: ins.Status}
		entry.User.ID = ins.User.ID
		entry.User.Name = ins.User.Name
		entry.User.Email = ins.User.Email
		result = append(result, entry)
	}
	return result, nil
}

// Decide applies an admin approval or rejection through the transition
// table; anything but PENDING_APPROVAL -> ACTIVE|CANCELED (or canceling an
// active policy) is rejected with a conflict.
func (s *ApprovalService) Decide(ctx context.Context, insuranceID uint, status models.InsuranceStatus) (*models.Insurance, error) {
	if status != models.InsuranceStatusActive && status != models.InsuranceStatusCanceled {
		return nil, apperrors.NewValidationError("status", "must be ACTIVE or CANCELED")
	}

	var insurance models.Insurance
	if err := s.db.WithContext(ctx).First(&insurance, insuranceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("insurance %d", insuranceID))
		}
		return nil, apperrors.NewInternalError("failed to fetch insurance", err)
	}

	if err := insurance.Transition(status); err != nil {
		return nil, err
	}
	if err := s.db.Save(&insurance).Error; err != nil {
		return nil, apperrors.NewInternalError("failed to save decision", err)
	}
	return &insurance, nil
}
