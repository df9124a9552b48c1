package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"medsafe_app/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// RegisterRequest is the typed body of POST /users.
type RegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CPF           string `json:"cpf"`
	Phone         string `json:"phone"`
	PostalCode    string `json:"postal_code"`
	Address       string `json:"address"`
	AddressNumber string `json:"address_number"`
	City          string `json:"city"`
	State         string `json:"state"`
}

// Register handles POST /users
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	user := models.User{
		Name:          req.Name,
		Email:         req.Email,
		CPF:           req.CPF,
		Phone:         req.Phone,
		PostalCode:    req.PostalCode,
		Address:       req.Address,
		AddressNumber: req.AddressNumber,
		City:          req.City,
		State:         req.State,
		Role:          models.UserRoleMember,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(http.StatusCreated, user)
}

// Me handles GET /me for the authenticated user
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe handles PUT /me; email and role are not editable here.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	user.Name = req.Name
	user.CPF = req.CPF
	user.Phone = req.Phone
	user.PostalCode = req.PostalCode
	user.Address = req.Address
	user.AddressNumber = req.AddressNumber
	user.City = req.City
	user.State = req.State

	if err := h.db.Save(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /admin/users
func (h *UserHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.db.Order("id asc").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser handles DELETE /admin/users/:id. Destructive escape hatch;
// normal flows never remove users.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.db.Delete(&models.User{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) currentUser(c echo.Context) (*models.User, error) {
	email, _ := c.Get("userEmail").(string)
	if email == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}
	return &user, nil
}
