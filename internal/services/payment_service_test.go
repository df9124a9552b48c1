package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medsafe_app/internal/apperrors"
	"medsafe_app/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.InsurancePlan{},
		&models.Insurance{},
		&models.PaymentMethod{},
		&models.Transaction{},
		&models.Coupon{},
		&models.WebhookEvent{},
	))
	return db
}

// fakeGateway implements BillingGateway and records call counts.
type fakeGateway struct {
	customerCalls int
	paymentCalls  int

	paymentStatus string
	paymentErr    error
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	f.customerCalls++
	return &CustomerResponse{ID: "cus_test_001", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	f.paymentCalls++
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}

	status := f.paymentStatus
	if status == "" {
		status = models.TransactionStatusPending
	}

	resp := &PaymentResponse{
		ID:     fmt.Sprintf("pay_test_%03d", f.paymentCalls),
		Status: status,
		Value:  req.Value,
	}
	if req.BillingType == string(models.PaymentTypeBoleto) {
		resp.BankSlipURL = "https://billing.example/boleto/" + resp.ID
	}
	if req.CreditCard != nil {
		number := req.CreditCard.Number
		resp.CreditCard = &struct {
			CreditCardNumber string `json:"creditCardNumber"`
			CreditCardBrand  string `json:"creditCardBrand"`
		}{
			CreditCardNumber: number[len(number)-4:],
			CreditCardBrand:  "VISA",
		}
	}
	return resp, nil
}

func (f *fakeGateway) GetBoletoIdentification(ctx context.Context, paymentID string) (*IdentificationResponse, error) {
	return &IdentificationResponse{IdentificationField: "34191.79001 01043.510047 91020.150008 1 99999999999999"}, nil
}

func seedPlanAndUser(t *testing.T, db *gorm.DB) (models.InsurancePlan, models.User) {
	t.Helper()
	plan := models.InsurancePlan{Name: "MedSafe Essencial", Price: 279.00, IsActive: true}
	require.NoError(t, db.Create(&plan).Error)

	user := models.User{
		Name:  "Joana Silva",
		Email: "joana@example.com",
		CPF:   "12345678901",
		Phone: "11999990000",
	}
	require.NoError(t, db.Create(&user).Error)
	return plan, user
}

func TestProcessPaymentBoletoFirstPurchase(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	result, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeBoleto,
	})
	require.NoError(t, err)
	require.NotZero(t, result.TransactionID)
	require.NotEmpty(t, result.BoletoURL)
	require.NotEmpty(t, result.BoletoCode)

	// Provider customer was created exactly once and cached on the user
	require.Equal(t, 1, gateway.customerCalls)
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, "cus_test_001", reloaded.ProviderCustomerID)

	// Exactly one insurance row, still waiting on payment
	var insurances []models.Insurance
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&insurances).Error)
	require.Len(t, insurances, 1)
	require.Equal(t, models.InsuranceStatusPendingPayment, insurances[0].Status)
	require.Equal(t, plan.Name, insurances[0].PlanName)

	// Exactly one transaction referencing the returned id
	var transaction models.Transaction
	require.NoError(t, db.First(&transaction, result.TransactionID).Error)
	require.Equal(t, result.ProviderPaymentID, transaction.ProviderPaymentID)
	require.Equal(t, 279.00, transaction.Amount)
	require.Equal(t, plan.Name, transaction.PlanName)
	require.Equal(t, plan.Price, transaction.PlanPrice)
}

func TestProcessPaymentCreditCardStoresLastFour(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{paymentStatus: models.TransactionStatusConfirmed}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeCreditCard,
		Card: &CardInput{
			HolderName:  "JOANA SILVA",
			Number:      "5162306219378829",
			ExpiryMonth: "05",
			ExpiryYear:  "2028",
			CCV:         "318",
		},
	})
	require.NoError(t, err)

	var method models.PaymentMethod
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.PaymentTypeCreditCard).First(&method).Error)
	require.Equal(t, "8829", method.CardLastFour)
	require.Equal(t, "VISA", method.CardBrand)

	// Synchronously confirmed card charge advances the policy past payment
	var insurance models.Insurance
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&insurance).Error)
	require.Equal(t, models.InsuranceStatusPendingDocument, insurance.Status)
}

func TestProcessPaymentUpsertAsymmetry(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	for i := 0; i < 2; i++ {
		_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
			PlanID:        plan.ID,
			UserID:        user.ID,
			PaymentMethod: models.PaymentTypeBoleto,
		})
		require.NoError(t, err)
	}

	// Insurance and payment method are upserted, transactions accumulate
	var insuranceCount, methodCount, transactionCount int64
	db.Model(&models.Insurance{}).Where("user_id = ?", user.ID).Count(&insuranceCount)
	db.Model(&models.PaymentMethod{}).Where("user_id = ?", user.ID).Count(&methodCount)
	db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&transactionCount)
	require.Equal(t, int64(1), insuranceCount)
	require.Equal(t, int64(1), methodCount)
	require.Equal(t, int64(2), transactionCount)
}

func TestProcessPaymentIdempotencyReplay(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	input := ProcessPaymentInput{
		PlanID:         plan.ID,
		UserID:         user.ID,
		PaymentMethod:  models.PaymentTypeBoleto,
		IdempotencyKey: "retry-safe-key-1",
	}

	first, err := svc.ProcessPayment(context.Background(), input)
	require.NoError(t, err)
	require.False(t, first.Replayed)
	require.Equal(t, 1, gateway.paymentCalls)

	second, err := svc.ProcessPayment(context.Background(), input)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.TransactionID, second.TransactionID)
	// The replay never reached the provider
	require.Equal(t, 1, gateway.paymentCalls)
}

func TestProcessPaymentRenewsCanceledPolicy(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{paymentStatus: models.TransactionStatusConfirmed}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	canceled := models.Insurance{UserID: user.ID, PlanName: plan.Name, Status: models.InsuranceStatusCanceled}
	require.NoError(t, db.Create(&canceled).Error)

	result, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeCreditCard,
		Card: &CardInput{
			HolderName:  "JOANA SILVA",
			Number:      "5162306219378829",
			ExpiryMonth: "05",
			ExpiryYear:  "2028",
			CCV:         "318",
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusConfirmed, result.Status)

	// Paying again starts a new cycle: the policy must not stay dead with
	// the customer's money against it.
	var reloaded models.Insurance
	require.NoError(t, db.First(&reloaded, canceled.ID).Error)
	require.Equal(t, models.InsuranceStatusPendingDocument, reloaded.Status)
}

func TestProcessPaymentIdempotencyKeyScopedPerUser(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	plan, userA := seedPlanAndUser(t, db)

	userB := models.User{
		Name:  "Carlos Souza",
		Email: "carlos@example.com",
		CPF:   "98765432100",
		Phone: "11888880000",
	}
	require.NoError(t, db.Create(&userB).Error)

	first, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:         plan.ID,
		UserID:         userA.ID,
		PaymentMethod:  models.PaymentTypeBoleto,
		IdempotencyKey: "checkout-1",
	})
	require.NoError(t, err)

	// Another customer reusing the same key gets a fresh charge of their
	// own, never a replay of someone else's transaction.
	second, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:         plan.ID,
		UserID:         userB.ID,
		PaymentMethod:  models.PaymentTypeBoleto,
		IdempotencyKey: "checkout-1",
	})
	require.NoError(t, err)
	require.False(t, second.Replayed)
	require.NotEqual(t, first.TransactionID, second.TransactionID)
	require.NotEqual(t, first.ProviderPaymentID, second.ProviderPaymentID)
	require.Equal(t, 2, gateway.paymentCalls)

	var transaction models.Transaction
	require.NoError(t, db.First(&transaction, second.TransactionID).Error)
	require.Equal(t, userB.ID, transaction.UserID)

	// The key still replays for the user who owns it
	replay, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:         plan.ID,
		UserID:         userA.ID,
		PaymentMethod:  models.PaymentTypeBoleto,
		IdempotencyKey: "checkout-1",
	})
	require.NoError(t, err)
	require.True(t, replay.Replayed)
	require.Equal(t, first.TransactionID, replay.TransactionID)
	require.Equal(t, 2, gateway.paymentCalls)
}

func TestProcessPaymentMissingCPFFailsBeforeProviderCall(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)

	plan := models.InsurancePlan{Name: "MedSafe Essencial", Price: 279.00, IsActive: true}
	require.NoError(t, db.Create(&plan).Error)
	user := models.User{Name: "Sem CPF", Email: "semcpf@example.com", Phone: "11999990000"}
	require.NoError(t, db.Create(&user).Error)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeBoleto,
	})
	require.Error(t, err)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "cpf", validationErr.Field)
	require.Equal(t, 0, gateway.customerCalls)
	require.Equal(t, 0, gateway.paymentCalls)
}

func TestProcessPaymentUserByEmail(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	result, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserEmail:     user.Email,
		PaymentMethod: models.PaymentTypeBoleto,
	})
	require.NoError(t, err)

	var transaction models.Transaction
	require.NoError(t, db.First(&transaction, result.TransactionID).Error)
	require.Equal(t, user.ID, transaction.UserID)
}

func TestProcessPaymentPlanNotFound(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(db, gateway, nil)
	_, user := seedPlanAndUser(t, db)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        9999,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeBoleto,
	})
	require.Error(t, err)

	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, 0, gateway.paymentCalls)
}

func TestProcessPaymentProviderErrorPersistsNothing(t *testing.T) {
	db := setupTestDB(t)
	gateway := &fakeGateway{
		paymentErr: apperrors.NewProviderError(400, "invalid value", nil),
	}
	svc := NewPaymentService(db, gateway, nil)
	plan, user := seedPlanAndUser(t, db)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentInput{
		PlanID:        plan.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentTypeBoleto,
	})
	require.Error(t, err)

	var insuranceCount, transactionCount int64
	db.Model(&models.Insurance{}).Count(&insuranceCount)
	db.Model(&models.Transaction{}).Count(&transactionCount)
	require.Equal(t, int64(0), insuranceCount)
	require.Equal(t, int64(0), transactionCount)
}

func TestApplyCoupon(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{}, nil)

	require.NoError(t, db.Create(&models.Coupon{
		Code:            "MEDSAFE10",
		DiscountPercent: 10,
		IsActive:        true,
	}).Error)

	tests := []struct {
		name       string
		code       string
		wantAmount float64
		wantCode   string
	}{
		{name: "valid coupon", code: "MEDSAFE10", wantAmount: 251.10, wantCode: "MEDSAFE10"},
		{name: "unknown coupon", code: "INVALID", wantAmount: 279.00, wantCode: ""},
		{name: "no coupon", code: "", wantAmount: 279.00, wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, code := svc.applyCoupon(279.00, tt.code)
			require.Equal(t, tt.wantAmount, amount)
			require.Equal(t, tt.wantCode, code)
		})
	}
}

func TestApplyCouponInactive(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{}, nil)

	require.NoError(t, db.Create(&models.Coupon{
		Code:            "EXPIRED20",
		DiscountPercent: 20,
		IsActive:        false,
	}).Error)

	amount, code := svc.applyCoupon(100.00, "EXPIRED20")
	require.Equal(t, 100.00, amount)
	require.Equal(t, "", code)
}
