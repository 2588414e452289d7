package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/techpulse/marketplace/internal/service"
)

const principalKey = "principal"

func setPrincipal(c echo.Context, p service.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID)
	c.Set("role", p.Role)
}

// PrincipalFrom returns the principal stored by JWTAuth.
func PrincipalFrom(c echo.Context) (service.Principal, bool) {
	p, ok := c.Get(principalKey).(service.Principal)
	return p, ok
}

// userID returns the authenticated user id as a string, or "guest".
func userID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok && p.UserID != 0 {
		return cast.ToString(p.UserID)
	}
	return "guest"
}
