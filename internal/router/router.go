// Package router registers the HTTP routes of the API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/techpulse/marketplace/internal/config"
	"github.com/techpulse/marketplace/internal/handler"
	"github.com/techpulse/marketplace/internal/middleware"
)

// Deps carries everything the routes need. Redis may be nil, which turns
// the response cache and the rate limiter into pass-throughs.
type Deps struct {
	Identifier middleware.Identifier
	Redis      *redis.Client
	Cache      config.CacheConfig
	RateLimit  config.RateLimitConfig

	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Listings  *handler.ListingHandler
	Reviews   *handler.ReviewHandler
	Favorites *handler.FavoriteHandler
	Admin     *handler.AdminHandler
	Cart      *handler.CartHandler
}

func (d Deps) cached(group string) echo.MiddlewareFunc {
	return middleware.NewRedisCache(d.Cache, d.Redis, group)
}

func (d Deps) invalidates(groups ...string) echo.MiddlewareFunc {
	return middleware.InvalidateOnSuccess(d.Cache, d.Redis, groups...)
}

func (d Deps) auth() echo.MiddlewareFunc { return middleware.JWTAuth(d.Identifier) }

func (d Deps) admin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{d.auth(), middleware.RequireRole("admin")}
}

// Register mounts every API route under /api.
func Register(e *echo.Echo, d Deps) {
	api := e.Group("/api")
	api.GET("/health", handler.Health)

	registerAuth(api, d)
	registerProducts(api, d)
	registerReviews(api, d)
	registerFavorites(api, d)
	registerListings(api, d)
	registerCart(api, d)
	registerAdmin(api, d)
}

// registerAuth mounts /api/auth. Credential endpoints are rate limited.
func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	g.POST("/signup", d.Auth.Signup, limit)
	g.POST("/login", d.Auth.Login, limit)

	g.GET("/me", d.Auth.Me, d.auth())
	// Names appear on cached reviews and listing seller summaries.
	g.PUT("/me", d.Auth.UpdateMe, d.auth(), d.invalidates(middleware.GroupReviews, middleware.GroupListings))
	g.POST("/logout", d.Auth.Logout, d.auth())
}
