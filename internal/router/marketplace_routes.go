package router

import (
	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/middleware"
)

// registerListings mounts /api/listings. /my is registered before /:slug
// and wins as a static route.
func registerListings(api *echo.Group, d Deps) {
	g := api.Group("/listings")
	cache := d.cached(middleware.GroupListings)
	g.GET("", d.Listings.List, cache)
	g.GET("/my", d.Listings.Mine, d.auth())
	g.GET("/:slug", d.Listings.Get, cache)

	inv := d.invalidates(middleware.GroupListings)
	g.POST("", d.Listings.Create, d.auth(), inv)
	g.PUT("/:id", d.Listings.Update, d.auth(), inv)
	g.DELETE("/:id", d.Listings.Delete, d.auth(), inv)
	g.PATCH("/:id/verify", d.Listings.Verify, append(d.admin(), inv)...)
}

// registerCart mounts the cart pricing routes. Quotes are open to guests.
func registerCart(api *echo.Group, d Deps) {
	g := api.Group("/cart")
	g.POST("/quote", d.Cart.Quote)
	g.POST("/checkout", d.Cart.Checkout, d.auth())
}

func registerAdmin(api *echo.Group, d Deps) {
	g := api.Group("/admin", d.admin()...)
	g.GET("/stats", d.Admin.Stats)
	g.GET("/users", d.Admin.Users)
	g.DELETE("/users/:id", d.Admin.DeleteUser,
		d.invalidates(middleware.GroupListings, middleware.GroupReviews, middleware.GroupProducts))
	g.GET("/listings", d.Admin.Listings)
}
