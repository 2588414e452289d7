package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/service"
)

type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	rs, err := h.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReviewHandler) ListMine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	rs, err := h.Reviews.ListMine(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req service.ReviewInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	r, err := h.Reviews.Create(ctx, principal(c), productID, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	var req service.ReviewPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	r, err := h.Reviews.Update(ctx, principal(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Reviews.Delete(ctx, principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "review deleted"})
}
