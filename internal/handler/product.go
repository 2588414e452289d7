package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/service"
)

// ProductHandler serves the public catalogue and its admin maintenance.
type ProductHandler struct {
	Products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{Products: products}
}

// List returns one page of products. Unknown sort keys fall back to newest.
func (h *ProductHandler) List(c echo.Context) error {
	f := service.ProductFilter{
		Category: c.QueryParam("category"),
		Brand:    c.QueryParam("brand"),
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	}
	var err error
	if f.InStock, err = queryBool(c, "inStock"); err != nil {
		return badRequest(c, "inStock must be true or false")
	}
	if f.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return badRequest(c, "minPrice must be a number")
	}
	if f.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return badRequest(c, "maxPrice must be a number")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	page, err := h.Products.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pageBody("products", page))
}

func (h *ProductHandler) Brands(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	brands, err := h.Products.Brands(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Products.Get(ctx, c.Param("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Products.Create(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req service.ProductPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Products.Update(ctx, id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}
