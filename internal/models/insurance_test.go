package models

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     InsuranceStatus
		to       InsuranceStatus
		expected bool
	}{
		{
			name:     "pending payment to pending document",
			from:     InsuranceStatusPendingPayment,
			to:       InsuranceStatusPendingDocument,
			expected: true,
		},
		{
			name:     "pending payment to canceled",
			from:     InsuranceStatusPendingPayment,
			to:       InsuranceStatusCanceled,
			expected: true,
		},
		{
			name:     "pending document to pending approval",
			from:     InsuranceStatusPendingDocument,
			to:       InsuranceStatusPendingApproval,
			expected: true,
		},
		{
			name:     "pending approval to active",
			from:     InsuranceStatusPendingApproval,
			to:       InsuranceStatusActive,
			expected: true,
		},
		{
			name:     "active to canceled",
			from:     InsuranceStatusActive,
			to:       InsuranceStatusCanceled,
			expected: true,
		},
		{
			name:     "pending payment cannot skip to active",
			from:     InsuranceStatusPendingPayment,
			to:       InsuranceStatusActive,
			expected: false,
		},
		{
			name:     "pending payment cannot skip to pending approval",
			from:     InsuranceStatusPendingPayment,
			to:       InsuranceStatusPendingApproval,
			expected: false,
		},
		{
			name:     "active cannot go back to pending document",
			from:     InsuranceStatusActive,
			to:       InsuranceStatusPendingDocument,
			expected: false,
		},
		{
			name:     "canceled is terminal",
			from:     InsuranceStatusCanceled,
			to:       InsuranceStatusPendingPayment,
			expected: false,
		},
		{
			name:     "canceled cannot reactivate",
			from:     InsuranceStatusCanceled,
			to:       InsuranceStatusActive,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("CanTransition(%s, %s) = %v; want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestInsuranceTransition(t *testing.T) {
	t.Run("legal move updates status", func(t *testing.T) {
		insurance := Insurance{Status: InsuranceStatusPendingDocument}
		if err := insurance.Transition(InsuranceStatusPendingApproval); err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if insurance.Status != InsuranceStatusPendingApproval {
			t.Errorf("status = %s; want %s", insurance.Status, InsuranceStatusPendingApproval)
		}
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		insurance := Insurance{Status: InsuranceStatusActive}
		if err := insurance.Transition(InsuranceStatusActive); err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if insurance.Status != InsuranceStatusActive {
			t.Errorf("status = %s; want %s", insurance.Status, InsuranceStatusActive)
		}
	})

	t.Run("illegal move leaves status untouched", func(t *testing.T) {
		insurance := Insurance{Status: InsuranceStatusPendingPayment}
		err := insurance.Transition(InsuranceStatusActive)
		if err == nil {
			t.Fatal("expected error for illegal transition, got nil")
		}
		if insurance.Status != InsuranceStatusPendingPayment {
			t.Errorf("status = %s; want %s", insurance.Status, InsuranceStatusPendingPayment)
		}
	})
}
