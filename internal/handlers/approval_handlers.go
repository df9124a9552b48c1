package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"medsafe_app/internal/models"
	"medsafe_app/internal/services"
)

type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

func NewApprovalHandler(approvalService *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// UploadContract handles POST /upload-contract (multipart form: contract
// file + user_email, plan_id, transaction_id fields).
func (h *ApprovalHandler) UploadContract(c echo.Context) error {
	userEmail := c.FormValue("user_email")
	if userEmail == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_email is required")
	}

	planID, _ := strconv.ParseUint(c.FormValue("plan_id"), 10, 32)
	transactionID, _ := strconv.ParseUint(c.FormValue("transaction_id"), 10, 32)

	fileHeader, err := c.FormFile("contract")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "contract file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "contract file could not be read")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "contract file could not be read")
	}

	err = h.approvalService.UploadContract(c.Request().Context(), userEmail,
		uint(planID), uint(transactionID), fileHeader.Filename, content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Contract received",
	})
}

// ListPendingApprovals handles GET /pending-approvals
func (h *ApprovalHandler) ListPendingApprovals(c echo.Context) error {
	pending, err := h.approvalService.ListPendingApprovals(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pending)
}

// UpdateApprovalRequest is the typed body of POST /update-approval.
type UpdateApprovalRequest struct {
	SubscriptionID uint   `json:"subscription_id"`
	Status         string `json:"status"`
}

// UpdateApproval handles POST /update-approval (admin decision).
func (h *ApprovalHandler) UpdateApproval(c echo.Context) error {
	var req UpdateApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.SubscriptionID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "subscription_id is required")
	}

	insurance, err := h.approvalService.Decide(c.Request().Context(),
		req.SubscriptionID, models.InsuranceStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, insurance)
}
