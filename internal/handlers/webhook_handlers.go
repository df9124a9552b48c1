package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"medsafe_app/internal/services"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// BillingCallback handles POST /webhooks/billing. The raw body is kept for
// the audit row; the parsed notification drives the status sync.
func (h *WebhookHandler) BillingCallback(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable payload")
	}

	var notification services.WebhookNotification
	if err := json.Unmarshal(rawBody, &notification); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if notification.Payment.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment.id is required")
	}

	if err := h.webhookService.HandleNotification(c.Request().Context(), rawBody, notification); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
