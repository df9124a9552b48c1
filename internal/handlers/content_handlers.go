package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"medsafe_app/internal/models"
)

// ContentHandler manages the landing-page content the back office edits:
// carousel slides and service boxes.
type ContentHandler struct {
	db *gorm.DB
}

func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// ListSlides handles GET /slides (active slides, ordered)
func (h *ContentHandler) ListSlides(c echo.Context) error {
	var slides []models.Slide
	if err := h.db.Where("is_active = ?", true).Order("position asc").Find(&slides).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch slides")
	}
	return c.JSON(http.StatusOK, slides)
}

// StoreSlide handles POST /admin/slides
func (h *ContentHandler) StoreSlide(c echo.Context) error {
	var slide models.Slide
	if err := c.Bind(&slide); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	slide.ID = 0
	if err := h.db.Create(&slide).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create slide")
	}
	return c.JSON(http.StatusCreated, slide)
}

// UpdateSlide handles PUT /admin/slides/:id
func (h *ContentHandler) UpdateSlide(c echo.Context) error {
	id := c.Param("id")
	var slide models.Slide
	if err := h.db.First(&slide, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Slide not found")
	}

	var req models.Slide
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	slide.Title = req.Title
	slide.Text = req.Text
	slide.ImageURL = req.ImageURL
	slide.Position = req.Position
	slide.IsActive = req.IsActive

	if err := h.db.Save(&slide).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update slide")
	}
	return c.JSON(http.StatusOK, slide)
}

// DeleteSlide handles DELETE /admin/slides/:id
func (h *ContentHandler) DeleteSlide(c echo.Context) error {
	if err := h.db.Delete(&models.Slide{}, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete slide")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListServiceBoxes handles GET /service-boxes
func (h *ContentHandler) ListServiceBoxes(c echo.Context) error {
	var boxes []models.ServiceBox
	if err := h.db.Where("is_active = ?", true).Order("position asc").Find(&boxes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch service boxes")
	}
	return c.JSON(http.StatusOK, boxes)
}

// StoreServiceBox handles POST /admin/service-boxes
func (h *ContentHandler) StoreServiceBox(c echo.Context) error {
	var box models.ServiceBox
	if err := c.Bind(&box); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	box.ID = 0
	if err := h.db.Create(&box).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create service box")
	}
	return c.JSON(http.StatusCreated, box)
}

// UpdateServiceBox handles PUT /admin/service-boxes/:id
func (h *ContentHandler) UpdateServiceBox(c echo.Context) error {
	id := c.Param("id")
	var box models.ServiceBox
	if err := h.db.First(&box, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Service box not found")
	}

	var req models.ServiceBox
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	box.Title = req.Title
	box.Text = req.Text
	box.ImageURL = req.ImageURL
	box.LinkURL = req.LinkURL
	box.Position = req.Position
	box.IsActive = req.IsActive

	if err := h.db.Save(&box).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update service box")
	}
	return c.JSON(http.StatusOK, box)
}

// DeleteServiceBox handles DELETE /admin/service-boxes/:id
func (h *ContentHandler) DeleteServiceBox(c echo.Context) error {
	if err := h.db.Delete(&models.ServiceBox{}, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete service box")
	}
	return c.NoContent(http.StatusNoContent)
}
