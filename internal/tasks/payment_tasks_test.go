package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medsafe_app/internal/models"
)

func setupTaskDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Insurance{},
		&models.Transaction{},
	))
	return db
}

func seedBoleto(t *testing.T, db *gorm.DB, insuranceID uint, status string, due time.Time) models.Transaction {
	t.Helper()
	transaction := models.Transaction{
		UserID:         1,
		InsuranceID:    insuranceID,
		Status:         status,
		Type:           models.PaymentTypeBoleto,
		DueDate:        &due,
		IdempotencyKey: uuid.New().String(),
	}
	require.NoError(t, db.Create(&transaction).Error)
	return transaction
}

func TestExpireStaleBoletos(t *testing.T) {
	db := setupTaskDB(t)

	insurance := models.Insurance{UserID: 1, Status: models.InsuranceStatusPendingPayment}
	require.NoError(t, db.Create(&insurance).Error)
	stale := seedBoleto(t, db, insurance.ID, models.TransactionStatusPending, time.Now().Add(-48*time.Hour))

	result, err := ExpireStaleBoletosHandler(context.Background(), db, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result["expired_count"])

	var updated models.Transaction
	require.NoError(t, db.First(&updated, stale.ID).Error)
	require.Equal(t, models.TransactionStatusOverdue, updated.Status)

	var policy models.Insurance
	require.NoError(t, db.First(&policy, insurance.ID).Error)
	require.Equal(t, models.InsuranceStatusCanceled, policy.Status)
}

func TestExpireStaleBoletosSkipsFutureDue(t *testing.T) {
	db := setupTaskDB(t)

	insurance := models.Insurance{UserID: 1, Status: models.InsuranceStatusPendingPayment}
	require.NoError(t, db.Create(&insurance).Error)
	pending := seedBoleto(t, db, insurance.ID, models.TransactionStatusPending, time.Now().Add(72*time.Hour))

	result, err := ExpireStaleBoletosHandler(context.Background(), db, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result["expired_count"])

	var updated models.Transaction
	require.NoError(t, db.First(&updated, pending.ID).Error)
	require.Equal(t, models.TransactionStatusPending, updated.Status)

	var policy models.Insurance
	require.NoError(t, db.First(&policy, insurance.ID).Error)
	require.Equal(t, models.InsuranceStatusPendingPayment, policy.Status)
}

func TestExpireStaleBoletosKeepsPolicyWithSettledCharge(t *testing.T) {
	db := setupTaskDB(t)

	insurance := models.Insurance{UserID: 1, Status: models.InsuranceStatusPendingPayment}
	require.NoError(t, db.Create(&insurance).Error)
	stale := seedBoleto(t, db, insurance.ID, models.TransactionStatusPending, time.Now().Add(-24*time.Hour))

	// A second charge already settled, so the lapsed boleto must not
	// take the policy down with it.
	settled := models.Transaction{
		UserID:         1,
		InsuranceID:    insurance.ID,
		Status:         models.TransactionStatusReceived,
		Type:           models.PaymentTypeCreditCard,
		IdempotencyKey: uuid.New().String(),
	}
	require.NoError(t, db.Create(&settled).Error)

	result, err := ExpireStaleBoletosHandler(context.Background(), db, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result["expired_count"])

	var updated models.Transaction
	require.NoError(t, db.First(&updated, stale.ID).Error)
	require.Equal(t, models.TransactionStatusOverdue, updated.Status)

	var policy models.Insurance
	require.NoError(t, db.First(&policy, insurance.ID).Error)
	require.Equal(t, models.InsuranceStatusPendingPayment, policy.Status)
}

func TestExpireStaleBoletosLeavesAdvancedPolicies(t *testing.T) {
	db := setupTaskDB(t)

	insurance := models.Insurance{UserID: 1, Status: models.InsuranceStatusPendingDocument}
	require.NoError(t, db.Create(&insurance).Error)
	seedBoleto(t, db, insurance.ID, models.TransactionStatusPending, time.Now().Add(-24*time.Hour))

	result, err := ExpireStaleBoletosHandler(context.Background(), db, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result["expired_count"])

	var policy models.Insurance
	require.NoError(t, db.First(&policy, insurance.ID).Error)
	require.Equal(t, models.InsuranceStatusPendingDocument, policy.Status)
}
