package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/service"
)

// AdminHandler serves the admin dashboard. Every route sits behind
// RequireRole("admin").
type AdminHandler struct {
	Admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{Admin: admin}
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Admin.Stats(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	us, err := h.Admin.Users(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, us)
}

// DeleteUser removes a non-admin user with their listings and reviews.
// Listing media is released on the way, so it runs without the short
// store deadline.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}

	if err := h.Admin.DeleteUser(c.Request().Context(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *AdminHandler) Listings(c echo.Context) error {
	f, err := listingFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	page, err := h.Admin.Listings(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pageBody("listings", page))
}
