package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/middleware"
	"github.com/techpulse/marketplace/internal/service"
)

// requestTimeout bounds the store work of a single request. Media uploads
// carry their own deadline inside the listing service.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusOf maps a service error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrDependency):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": msg}. Unclassified errors are logged and
// reported with a generic message.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	var se *service.Error
	if status == http.StatusInternalServerError || !errors.As(err, &se) {
		logger.Error(c.Request().Context()).Err(err).
			Str("route", c.Path()).
			Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": se.Msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// principal returns the caller identity placed by the JWT middleware.
func principal(c echo.Context) service.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := cast.ToUint64E(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string) int {
	return cast.ToInt(c.QueryParam(name))
}

// queryFloat returns nil when the parameter is absent.
func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	f, err := parseFloat(raw)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// parseFloat accepts finite numbers only; "Inf" and "NaN" parse as floats
// but cannot be stored or compared.
func parseFloat(raw string) (float64, error) {
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// pageBody renders a page as {<key>, page, totalPages, total}.
func pageBody[T any](key string, p service.Page[T]) echo.Map {
	return echo.Map{
		key:          p.Items,
		"page":       p.Page,
		"totalPages": p.TotalPages,
		"total":      p.Total,
	}
}
