package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"medsafe_app/internal/models"
	"medsafe_app/internal/services"
)

const planCatalogCacheKey = "plans:catalog"

type PlanHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewPlanHandler(db *gorm.DB, cache *services.RedisCache) *PlanHandler {
	return &PlanHandler{db: db, cache: cache}
}

// ListPlans handles GET /plans: the active catalog, cached for 5 minutes.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	fetch := func() ([]models.InsurancePlan, error) {
		var plans []models.InsurancePlan
		err := h.db.Where("is_active = ?", true).Order("price asc").Find(&plans).Error
		return plans, err
	}

	var plans []models.InsurancePlan
	var err error
	if h.cache != nil {
		plans, err = services.GetOrSet(h.cache, c.Request().Context(), planCatalogCacheKey, 5*time.Minute, fetch)
	} else {
		plans, err = fetch()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch plans")
	}

	return c.JSON(http.StatusOK, plans)
}

// PlanRequest is the typed body for admin plan writes.
type PlanRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Features       []string `json:"features"`
	IsActive       *bool    `json:"is_active"`
	ProviderPlanID string   `json:"provider_plan_id"`
}

// StorePlan handles POST /admin/plans
func (h *PlanHandler) StorePlan(c echo.Context) error {
	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be positive")
	}

	features, _ := json.Marshal(req.Features)
	plan := models.InsurancePlan{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Features:       features,
		IsActive:       true,
		ProviderPlanID: req.ProviderPlanID,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Create(&plan).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create plan")
	}

	h.invalidateCatalog(c)
	return c.JSON(http.StatusCreated, plan)
}

// UpdatePlan handles PUT /admin/plans/:id
func (h *PlanHandler) UpdatePlan(c echo.Context) error {
	id := c.Param("id")
	var plan models.InsurancePlan
	if err := h.db.First(&plan, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Plan not found")
	}

	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	// Partial update: zero-valued fields leave the stored value alone.
	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Price > 0 {
		plan.Price = req.Price
	}
	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.ProviderPlanID != "" {
		plan.ProviderPlanID = req.ProviderPlanID
	}
	if req.Features != nil {
		features, _ := json.Marshal(req.Features)
		plan.Features = features
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.db.Save(&plan).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update plan")
	}

	h.invalidateCatalog(c)
	return c.JSON(http.StatusOK, plan)
}

// DeletePlan handles DELETE /admin/plans/:id
func (h *PlanHandler) DeletePlan(c echo.Context) error {
	id := c.Param("id")
	if err := h.db.Delete(&models.InsurancePlan{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete plan")
	}

	h.invalidateCatalog(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *PlanHandler) invalidateCatalog(c echo.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(c.Request().Context(), planCatalogCacheKey); err != nil {
		c.Logger().Warnf("Failed to invalidate plan catalog cache: %v", err)
	}
}
