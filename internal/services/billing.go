package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"medsafe_app/internal/apperrors"
)

// BillingClient talks to the external billing provider's REST API. It is
// constructed once at startup and injected into whoever needs it, so tests
// can swap in a fake through the gateway interface.
type BillingClient struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	BoletoDueDays int
	CardDueDays   int
}

// NewBillingClient builds a client from environment configuration.
func NewBillingClient() *BillingClient {
	baseURL := os.Getenv("BILLING_BASE_URL")
	if baseURL == "" {
		baseURL = "https://sandbox.asaas.com/api/v3"
	}

	return &BillingClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		apiKey:        os.Getenv("BILLING_API_KEY"),
		client:        &http.Client{Timeout: 15 * time.Second},
		BoletoDueDays: envInt("BILLING_DUE_DAYS_BOLETO", 5),
		CardDueDays:   envInt("BILLING_DUE_DAYS_CARD", 1),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// CustomerRequest is the payload to register a customer at the provider.
type CustomerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	Phone         string `json:"phone,omitempty"`
	MobilePhone   string `json:"mobilePhone,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	AddressNumber string `json:"addressNumber,omitempty"`
}

// CustomerResponse is the provider's customer object, reduced to what the
// application uses.
type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreditCard carries raw card data for a card charge. It is never persisted.
type CreditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

// CreditCardHolderInfo identifies the card holder for anti-fraud checks.
type CreditCardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
	Phone         string `json:"phone"`
}

// PaymentRequest is the payload to create a charge.
type PaymentRequest struct {
	Customer             string                `json:"customer"`
	BillingType          string                `json:"billingType"` // BOLETO or CREDIT_CARD
	Value                float64               `json:"value"`
	DueDate              string                `json:"dueDate"` // YYYY-MM-DD
	Description          string                `json:"description,omitempty"`
	CreditCard           *CreditCard           `json:"creditCard,omitempty"`
	CreditCardHolderInfo *CreditCardHolderInfo `json:"creditCardHolderInfo,omitempty"`
	RemoteIP             string                `json:"remoteIp,omitempty"`
}

// PaymentResponse is the provider's payment object, reduced to what the
// application uses.
type PaymentResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	BankSlipURL string  `json:"bankSlipUrl"`
	InvoiceURL  string  `json:"invoiceUrl"`
	CreditCard  *struct {
		CreditCardNumber string `json:"creditCardNumber"` // last 4 digits
		CreditCardBrand  string `json:"creditCardBrand"`
	} `json:"creditCard"`
}

// IdentificationResponse carries the boleto digitable line for a payment.
type IdentificationResponse struct {
	IdentificationField string `json:"identificationField"`
	BarCode             string `json:"barCode"`
}

type providerErrorBody struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// CreateCustomer registers a customer at the provider and returns its id.
func (b *BillingClient) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	var resp CustomerResponse
	if err := b.doRequest(ctx, http.MethodPost, "/customers", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePayment creates a boleto or credit-card charge.
func (b *BillingClient) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := b.doRequest(ctx, http.MethodPost, "/payments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBoletoIdentification fetches the digitable line of a boleto charge.
func (b *BillingClient) GetBoletoIdentification(ctx context.Context, paymentID string) (*IdentificationResponse, error) {
	var resp IdentificationResponse
	path := fmt.Sprintf("/payments/%s/identificationField", paymentID)
	if err := b.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *BillingClient) doRequest(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	if b.apiKey == "" {
		return apperrors.NewConfigurationError("BILLING_API_KEY is not set")
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewInternalError("failed to marshal billing payload", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, bodyReader)
	if err != nil {
		return apperrors.NewInternalError("failed to create billing request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return apperrors.NewProviderError(0, "no response received", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return apperrors.NewProviderError(resp.StatusCode, extractProviderMessage(body), nil)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return apperrors.NewProviderError(resp.StatusCode, "unparseable provider response", err)
		}
	}

	return nil
}

// extractProviderMessage pulls the human-readable description out of the
// provider's error envelope, falling back to the raw body.
func extractProviderMessage(body []byte) string {
	var parsed providerErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		descriptions := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			descriptions = append(descriptions, e.Description)
		}
		return strings.Join(descriptions, "; ")
	}
	return string(body)
}
