package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medsafe_app/internal/apperrors"
	"medsafe_app/internal/models"
)

// BillingGateway is the slice of the billing provider the payment flow
// depends on. The concrete BillingClient satisfies it; tests inject a fake.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error)
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	GetBoletoIdentification(ctx context.Context, paymentID string) (*IdentificationResponse, error)
}

// fallback origin IP sent to the provider's anti-fraud check when the
// request IP is unavailable
const defaultRemoteIP = "186.204.1.1"

type PaymentService struct {
	db      *gorm.DB
	gateway BillingGateway
	cache   *RedisCache

	BoletoDueDays int
	CardDueDays   int
}

func NewPaymentService(db *gorm.DB, gateway BillingGateway, cache *RedisCache) *PaymentService {
	return &PaymentService{
		db:            db,
		gateway:       gateway,
		cache:         cache,
		BoletoDueDays: envInt("BILLING_DUE_DAYS_BOLETO", 5),
		CardDueDays:   envInt("BILLING_DUE_DAYS_CARD", 1),
	}
}

// CardInput carries raw card data submitted by the customer.
type CardInput struct {
	HolderName  string
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CCV         string
}

// ProcessPaymentInput identifies the user either by id or by email.
type ProcessPaymentInput struct {
	PlanID         uint
	UserID         uint
	UserEmail      string
	PaymentMethod  models.PaymentType
	CouponCode     string
	IdempotencyKey string
	RemoteIP       string
	Card           *CardInput
}

// ProcessPaymentResult is returned to the handler after orchestration.
type ProcessPaymentResult struct {
	TransactionID     uint    `json:"transaction_id"`
	ProviderPaymentID string  `json:"provider_payment_id"`
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	BoletoURL         string  `json:"boleto_url,omitempty"`
	BoletoCode        string  `json:"boleto_code,omitempty"`
	Replayed          bool    `json:"replayed"`
}

// ProcessPayment runs the purchase workflow: resolve plan and user, create
// the provider customer if missing, create the charge, upsert the local
// insurance and payment-method rows, and append a transaction record.
// There is no compensating rollback: a provider customer created on a
// later-failing attempt stays cached on the user.
func (s *PaymentService) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*ProcessPaymentResult, error) {
	// 1. Resolve catalog entry and user.
	var plan models.InsurancePlan
	if err := s.db.First(&plan, input.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("plan %d", input.PlanID))
		}
		return nil, apperrors.NewInternalError("failed to fetch plan", err)
	}

	user, err := s.resolveUser(input)
	if err != nil {
		return nil, err
	}

	// 2. Idempotency replay, scoped to the resolved user: a key this user
	// already processed returns the original result without touching the
	// provider again. Another user reusing the same key gets a fresh charge.
	if input.IdempotencyKey != "" {
		var existing models.Transaction
		err := s.db.Where("user_id = ? AND idempotency_key = ?", user.ID, input.IdempotencyKey).First(&existing).Error
		if err == nil {
			return resultFromTransaction(&existing, true), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInternalError("failed to check idempotency key", err)
		}
	} else {
		input.IdempotencyKey = uuid.New().String()
	}

	// 3. Serialize concurrent purchase attempts per user. The unique index
	// on insurances.user_id remains the backstop if Redis is down.
	if s.cache != nil {
		lockKey := fmt.Sprintf("payment:user:%d", user.ID)
		acquired, lockErr := s.cache.SetNX(ctx, lockKey, 1, 30*time.Second)
		if lockErr == nil {
			if !acquired {
				return nil, apperrors.NewConflictError("a payment for this user is already in progress")
			}
			defer func() {
				if err := s.cache.Delete(ctx, lockKey); err != nil {
					log.Printf("Failed to release payment lock for user %d: %v", user.ID, err)
				}
			}()
		} else {
			log.Printf("Payment lock unavailable, relying on storage constraints: %v", lockErr)
		}
	}

	// 4. Make sure the provider knows this customer.
	if user.ProviderCustomerID == "" {
		if user.CPF == "" {
			return nil, apperrors.NewValidationError("cpf", "required to register the billing customer")
		}
		if user.Phone == "" {
			return nil, apperrors.NewValidationError("phone", "required to register the billing customer")
		}

		customer, err := s.gateway.CreateCustomer(ctx, CustomerRequest{
			Name:          user.Name,
			Email:         user.Email,
			CpfCnpj:       user.CPF,
			Phone:         user.Phone,
			MobilePhone:   user.Phone,
			PostalCode:    user.PostalCode,
			AddressNumber: user.AddressNumber,
		})
		if err != nil {
			return nil, err
		}

		user.ProviderCustomerID = customer.ID
		if err := s.db.Model(user).Update("provider_customer_id", customer.ID).Error; err != nil {
			return nil, apperrors.NewInternalError("failed to persist provider customer id", err)
		}
	}

	// 5. Price the purchase.
	finalAmount, couponCode := s.applyCoupon(plan.Price, input.CouponCode)

	// 6. Create the charge at the provider. Nothing is persisted locally
	// until this succeeds.
	payment, err := s.gateway.CreatePayment(ctx, s.buildPaymentRequest(user, &plan, input, finalAmount, couponCode))
	if err != nil {
		return nil, err
	}

	boletoURL, boletoCode := "", ""
	if input.PaymentMethod == models.PaymentTypeBoleto {
		boletoURL = payment.BankSlipURL
		if ident, err := s.gateway.GetBoletoIdentification(ctx, payment.ID); err == nil {
			boletoCode = ident.IdentificationField
		} else {
			// The slip URL is enough for the customer to pay.
			log.Printf("Failed to fetch boleto identification for %s: %v", payment.ID, err)
		}
	}

	// 7. Upsert insurance, payment method, and append the transaction.
	insurance, err := s.upsertInsurance(user.ID, plan.Name, payment.Status)
	if err != nil {
		return nil, err
	}

	method, err := s.upsertPaymentMethod(user.ID, input.PaymentMethod, payment)
	if err != nil {
		return nil, err
	}

	dueDate := s.dueDate(input.PaymentMethod)
	transaction := models.Transaction{
		UserID:            user.ID,
		InsuranceID:       insurance.ID,
		PaymentMethodID:   method.ID,
		ProviderPaymentID: payment.ID,
		IdempotencyKey:    input.IdempotencyKey,
		Status:            payment.Status,
		Type:              input.PaymentMethod,
		Amount:            finalAmount,
		OriginalAmount:    plan.Price,
		CouponCode:        couponCode,
		PlanName:          plan.Name,
		PlanPrice:         plan.Price,
		BoletoURL:         boletoURL,
		BoletoBarcode:     boletoCode,
		DueDate:           &dueDate,
	}
	if err := s.db.Create(&transaction).Error; err != nil {
		// The provider charge exists but the local record failed; surface
		// the error so support can reconcile from the provider dashboard.
		return nil, apperrors.NewInternalError("charge created but transaction record failed", err)
	}

	return resultFromTransaction(&transaction, false), nil
}

func (s *PaymentService) resolveUser(input ProcessPaymentInput) (*models.User, error) {
	var user models.User
	query := s.db
	switch {
	case input.UserID != 0:
		query = query.Where("id = ?", input.UserID)
	case input.UserEmail != "":
		query = query.Where("email = ?", input.UserEmail)
	default:
		return nil, apperrors.NewValidationError("customer_id", "user id or email is required")
	}

	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewInternalError("failed to fetch user", err)
	}
	return &user, nil
}

// applyCoupon returns the discounted amount and the code actually applied.
// Unknown or inactive codes fall back to full price with no code recorded.
func (s *PaymentService) applyCoupon(price float64, code string) (float64, string) {
	if code == "" {
		return price, ""
	}

	var coupon models.Coupon
	err := s.db.Where("code = ? AND is_active = ?", code, true).First(&coupon).Error
	if err != nil {
		return price, ""
	}
	return coupon.Apply(price), coupon.Code
}

func (s *PaymentService) dueDate(method models.PaymentType) time.Time {
	days := s.BoletoDueDays
	if method == models.PaymentTypeCreditCard {
		days = s.CardDueDays
	}
	return time.Now().AddDate(0, 0, days)
}

func (s *PaymentService) buildPaymentRequest(user *models.User, plan *models.InsurancePlan, input ProcessPaymentInput, amount float64, couponCode string) PaymentRequest {
	description := "MedSafe - " + plan.Name
	if couponCode != "" {
		description += " (cupom " + couponCode + ")"
	}

	req := PaymentRequest{
		Customer:    user.ProviderCustomerID,
		BillingType: string(input.PaymentMethod),
		Value:       amount,
		DueDate:     s.dueDate(input.PaymentMethod).Format("2006-01-02"),
		Description: description,
	}

	if input.PaymentMethod == models.PaymentTypeCreditCard && input.Card != nil {
		remoteIP := input.RemoteIP
		if remoteIP == "" {
			remoteIP = defaultRemoteIP
		}
		req.CreditCard = &CreditCard{
			HolderName:  input.Card.HolderName,
			Number:      input.Card.Number,
			ExpiryMonth: input.Card.ExpiryMonth,
			ExpiryYear:  input.Card.ExpiryYear,
			CCV:         input.Card.CCV,
		}
		req.CreditCardHolderInfo = &CreditCardHolderInfo{
			Name:          user.Name,
			Email:         user.Email,
			CpfCnpj:       user.CPF,
			PostalCode:    user.PostalCode,
			AddressNumber: user.AddressNumber,
			Phone:         user.Phone,
		}
		req.RemoteIP = remoteIP
	}

	return req
}

// upsertInsurance finds or creates the user's single policy row. A new
// policy starts at PENDING_PAYMENT; if the provider already confirmed the
// charge (synchronous card capture) it advances immediately. A CANCELED
// row is reset to PENDING_PAYMENT: the customer just paid again, which
// starts a new cycle rather than leaving the money against a dead policy.
func (s *PaymentService) upsertInsurance(userID uint, planName, paymentStatus string) (*models.Insurance, error) {
	var insurance models.Insurance
	err := s.db.Where("user_id = ?", userID).First(&insurance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		insurance = models.Insurance{
			UserID:   userID,
			PlanName: planName,
			Status:   models.InsuranceStatusPendingPayment,
		}
		if err := s.db.Create(&insurance).Error; err != nil {
			return nil, apperrors.NewInternalError("failed to create insurance", err)
		}
	} else if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch insurance", err)
	} else {
		insurance.PlanName = planName
		if insurance.Status == models.InsuranceStatusCanceled {
			insurance.Status = models.InsuranceStatusPendingPayment
		}
	}

	settled := paymentStatus == models.TransactionStatusConfirmed ||
		paymentStatus == models.TransactionStatusReceived
	if settled && insurance.Status == models.InsuranceStatusPendingPayment {
		if err := insurance.Transition(models.InsuranceStatusPendingDocument); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(&insurance).Error; err != nil {
		return nil, apperrors.NewInternalError("failed to save insurance", err)
	}
	return &insurance, nil
}

// upsertPaymentMethod finds or creates the (user, type) payment method and
// refreshes the masked card metadata from the provider response.
func (s *PaymentService) upsertPaymentMethod(userID uint, payType models.PaymentType, payment *PaymentResponse) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.Where("user_id = ? AND type = ?", userID, payType).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		method = models.PaymentMethod{UserID: userID, Type: payType}
	} else if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch payment method", err)
	}

	if payType == models.PaymentTypeCreditCard && payment.CreditCard != nil {
		method.CardLastFour = payment.CreditCard.CreditCardNumber
		method.CardBrand = payment.CreditCard.CreditCardBrand
	}

	if err := s.db.Save(&method).Error; err != nil {
		return nil, apperrors.NewInternalError("failed to save payment method", err)
	}
	return &method, nil
}

func resultFromTransaction(t *models.Transaction, replayed bool) *ProcessPaymentResult {
	return &ProcessPaymentResult{
		TransactionID:     t.ID,
		ProviderPaymentID: t.ProviderPaymentID,
		Status:            t.Status,
		Amount:            t.Amount,
		BoletoURL:         t.BoletoURL,
		BoletoCode:        t.BoletoBarcode,
		Replayed:          replayed,
	}
}
