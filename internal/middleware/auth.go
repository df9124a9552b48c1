package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"medsafe_app/internal/models"
)

// RequireAuth verifies the Firebase session cookie and puts the caller's
// email and uid on the context. API callers get a JSON 401, never a
// redirect.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication is not configured")
			}

			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			c.Set("userUID", decodedToken.UID)
			if email, ok := decodedToken.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}

			return next(c)
		}
	}
}

// RequireAdmin checks the authenticated caller against the local user table
// and rejects anyone without the Admin role. Must run after RequireAuth.
func RequireAdmin(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, _ := c.Get("userEmail").(string)
			if email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			var user models.User
			if err := db.Where("email = ?", email).First(&user).Error; err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			if user.Role != models.UserRoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}

			c.Set("adminUserID", user.ID)
			return next(c)
		}
	}
}
