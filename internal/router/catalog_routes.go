package router

import (
	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/middleware"
)

// registerProducts mounts the catalogue. Reads are public and cached;
// writes are admin only. Deleting a product drops its reviews too.
func registerProducts(api *echo.Group, d Deps) {
	g := api.Group("/products")
	cache := d.cached(middleware.GroupProducts)
	g.GET("", d.Products.List, cache)
	g.GET("/brands", d.Products.Brands, cache)
	g.GET("/:slug", d.Products.Get, cache)

	w := append(d.admin(), d.invalidates(middleware.GroupProducts, middleware.GroupReviews))
	g.POST("", d.Products.Create, w...)
	g.PUT("/:id", d.Products.Update, w...)
	g.DELETE("/:id", d.Products.Delete, w...)
}

// registerReviews mounts /api/reviews. A review write changes the
// product's rating, so it drops the product pages as well.
func registerReviews(api *echo.Group, d Deps) {
	g := api.Group("/reviews")
	g.GET("/user/me", d.Reviews.ListMine, d.auth())
	g.GET("/:productId", d.Reviews.ListByProduct, d.cached(middleware.GroupReviews))

	inv := d.invalidates(middleware.GroupReviews, middleware.GroupProducts)
	g.POST("/:productId", d.Reviews.Create, d.auth(), inv)
	g.PUT("/:id", d.Reviews.Update, d.auth(), inv)
	g.DELETE("/:id", d.Reviews.Delete, d.auth(), inv)
}

func registerFavorites(api *echo.Group, d Deps) {
	g := api.Group("/favorites", d.auth())
	g.GET("", d.Favorites.List)
	g.POST("/:productId", d.Favorites.Add)
	g.DELETE("/:productId", d.Favorites.Remove)
	g.POST("/:productId/toggle", d.Favorites.Toggle)
}
