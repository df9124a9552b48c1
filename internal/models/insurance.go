package models

import (
	"time"

	"gorm.io/gorm"

	"medsafe_app/internal/apperrors"
)

// InsuranceStatus represents the lifecycle state of a policy
type InsuranceStatus string

const (
	InsuranceStatusPendingPayment  InsuranceStatus = "PENDING_PAYMENT"
	InsuranceStatusPendingDocument InsuranceStatus = "PENDING_DOCUMENT"
	InsuranceStatusPendingApproval InsuranceStatus = "PENDING_APPROVAL"
	InsuranceStatusActive          InsuranceStatus = "ACTIVE"
	InsuranceStatusCanceled        InsuranceStatus = "CANCELED"
)

// allowedTransitions is the closed transition table for Insurance.Status.
// Any write outside this table is rejected with a conflict error.
var allowedTransitions = map[InsuranceStatus][]InsuranceStatus{
	InsuranceStatusPendingPayment:  {InsuranceStatusPendingDocument, InsuranceStatusCanceled},
	InsuranceStatusPendingDocument: {InsuranceStatusPendingApproval, InsuranceStatusCanceled},
	InsuranceStatusPendingApproval: {InsuranceStatusActive, InsuranceStatusCanceled},
	InsuranceStatusActive:          {InsuranceStatusCanceled},
	InsuranceStatusCanceled:        {},
}

// PendingStatuses are the states the back office still has to act on.
var PendingStatuses = []InsuranceStatus{
	InsuranceStatusPendingPayment,
	InsuranceStatusPendingDocument,
	InsuranceStatusPendingApproval,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to InsuranceStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Insurance is a user's policy. At most one row exists per user; the plan
// name is snapshotted so later catalog edits don't rewrite history.
type Insurance struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID   uint            `gorm:"uniqueIndex" json:"user_id"`
	PlanName string          `gorm:"type:varchar(255)" json:"plan_name"`
	Status   InsuranceStatus `gorm:"type:varchar(30);default:'PENDING_PAYMENT'" json:"status"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Transition moves the policy to a new status, enforcing the transition
// table. The caller is responsible for persisting the row afterwards.
func (i *Insurance) Transition(to InsuranceStatus) error {
	if i.Status == to {
		return nil
	}
	if !CanTransition(i.Status, to) {
		return apperrors.NewConflictError(
			"insurance status cannot move from " + string(i.Status) + " to " + string(to))
	}
	i.Status = to
	return nil
}
