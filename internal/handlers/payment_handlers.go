package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medsafe_app/internal/models"
	"medsafe_app/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CardRequest carries raw card data from the checkout form.
type CardRequest struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CCV         string `json:"ccv"`
}

// CreatePaymentRequest is the typed body of POST /payments. The customer is
// identified by numeric id or by email.
type CreatePaymentRequest struct {
	PlanID        uint         `json:"plan_id"`
	CustomerID    uint         `json:"customer_id"`
	CustomerEmail string       `json:"customer_email"`
	PaymentMethod string       `json:"payment_method"`
	CouponCode    string       `json:"coupon_code"`
	Card          *CardRequest `json:"card"`
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	if req.PlanID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "plan_id is required")
	}

	method := models.PaymentType(req.PaymentMethod)
	if method != models.PaymentTypeBoleto && method != models.PaymentTypeCreditCard {
		return echo.NewHTTPError(http.StatusBadRequest, "payment_method must be BOLETO or CREDIT_CARD")
	}
	if method == models.PaymentTypeCreditCard && req.Card == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "card details are required for CREDIT_CARD")
	}

	input := services.ProcessPaymentInput{
		PlanID:         req.PlanID,
		UserID:         req.CustomerID,
		UserEmail:      req.CustomerEmail,
		PaymentMethod:  method,
		CouponCode:     req.CouponCode,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
		RemoteIP:       c.RealIP(),
	}
	if req.Card != nil {
		input.Card = &services.CardInput{
			HolderName:  req.Card.HolderName,
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CCV:         req.Card.CCV,
		}
	}

	result, err := h.paymentService.ProcessPayment(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":             true,
		"transaction_id":      result.TransactionID,
		"provider_payment_id": result.ProviderPaymentID,
		"status":              result.Status,
		"amount":              result.Amount,
		"boleto_url":          result.BoletoURL,
		"boleto_code":         result.BoletoCode,
		"replayed":            result.Replayed,
	})
}
