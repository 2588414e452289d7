package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/service"
)

// FavoriteHandler manages the caller's favorite products.
type FavoriteHandler struct {
	Favorites *service.FavoriteService
}

func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

func (h *FavoriteHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ps, err := h.Favorites.List(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	ids, err := h.Favorites.Add(ctx, principal(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to favorites", "favorites": ids})
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	ids, err := h.Favorites.Remove(ctx, principal(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from favorites", "favorites": ids})
}

func (h *FavoriteHandler) Toggle(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	on, ids, err := h.Favorites.Toggle(ctx, principal(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"favorited": on, "favorites": ids})
}
