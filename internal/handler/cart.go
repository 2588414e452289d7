package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/service"
)

// CartHandler prices a client-side cart. Nothing is persisted.
type CartHandler struct {
	Cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{Cart: cart}
}

type cartReq struct {
	ListingIDs []uint64 `json:"listingIds"`
}

func (h *CartHandler) Quote(c echo.Context) error {
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	q, err := h.Cart.Quote(ctx, req.ListingIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Checkout simulates payment for the cart and returns an order id.
func (h *CartHandler) Checkout(c echo.Context) error {
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	out, err := h.Cart.Checkout(ctx, principal(c), req.ListingIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
