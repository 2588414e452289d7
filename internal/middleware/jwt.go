package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/service"
)

// Identifier resolves a raw bearer token to a principal. It is satisfied by
// *service.AuthService.
type Identifier interface {
	Identify(ctx context.Context, raw string) (service.Principal, error)
}

// JWTAuth validates the Bearer access token of each request and stores the
// resulting principal in the context. Handlers read it back with
// PrincipalFrom; c.Get("user_id") and c.Get("role") are set as well.
func JWTAuth(id Identifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			p, err := id.Identify(c.Request().Context(), raw)
			if err != nil {
				var se *service.Error
				switch {
				case errors.Is(err, service.ErrAuthentication) && errors.As(err, &se):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": se.Msg})
				case errors.Is(err, service.ErrDependency):
					return c.JSON(http.StatusBadGateway, echo.Map{"error": "authentication unavailable"})
				}
				logger.Error(c.Request().Context()).Err(err).Msg("auth: identify failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}
