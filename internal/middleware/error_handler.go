package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medsafe_app/internal/apperrors"
)

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// CustomErrorHandler translates typed application errors and echo HTTP
// errors into the JSON error envelope.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	category := "INTERNAL_ERROR"
	message := "Something went wrong. Please try again later."

	switch e := err.(type) {
	case *echo.HTTPError:
		code = e.Code
		category = http.StatusText(e.Code)
		if msg, ok := e.Message.(string); ok && msg != "" {
			message = msg
		}
	default:
		code, category, message = apperrors.MapToHTTPStatus(err)
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(code, ErrorResponse{Code: code, Category: category, Message: message}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
