package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . MediaStore,EventPublisher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techpulse/marketplace/internal/media"
	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/queue"
	"github.com/techpulse/marketplace/internal/repository"
)

// UserStore persists users. Implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, firstName, lastName, email string) error
	List(ctx context.Context) ([]model.User, error)
	// Delete removes the user together with their reviews, recomputing the
	// rating of every product they reviewed.
	Delete(ctx context.Context, id uint64) error
}

type FavoriteStore interface {
	IDs(ctx context.Context, userID uint64) ([]uint64, error)
	Products(ctx context.Context, userID uint64) ([]model.ProductSummary, error)
	Add(ctx context.Context, userID, productID uint64) error
	Remove(ctx context.Context, userID, productID uint64) error
}

type ProductStore interface {
	List(ctx context.Context, q repository.ProductQuery) ([]model.Product, int64, error)
	Brands(ctx context.Context) ([]model.NameCount, error)
	GetBySlug(ctx context.Context, slug string) (model.Product, error)
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint64) error
}

type ListingStore interface {
	List(ctx context.Context, q repository.ListingQuery) ([]model.Listing, int64, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Listing, error)
	GetMany(ctx context.Context, ids []uint64) ([]model.Listing, error)
	GetByID(ctx context.Context, id uint64) (model.Listing, error)
	GetBySlug(ctx context.Context, slug string) (model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	Update(ctx context.Context, l *model.Listing, added []model.Media) error
	// SetStatus writes status and video_verified = (status == active) as
	// one change.
	SetStatus(ctx context.Context, id uint64, status string) error
	Delete(ctx context.Context, id uint64) error
}

// ReviewStore persists reviews. Every write recomputes the rating of the
// reviewed product in the same transaction.
type ReviewStore interface {
	ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Review, error)
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	Create(ctx context.Context, rv *model.Review) error
	Update(ctx context.Context, rv *model.Review) error
	Delete(ctx context.Context, id uint64) error
}

type StatsStore interface {
	Count(ctx context.Context, table string) (int64, error)
	CountUsersSince(ctx context.Context, t time.Time) (int64, error)
	ListingsByStatus(ctx context.Context) ([]model.NameCount, error)
	ListingsByCategory(ctx context.Context) ([]model.NameCount, error)
	SumPrice(ctx context.Context, status string) (decimal.Decimal, error)
}

// TokenDenylist records logged-out tokens until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MediaStore holds listing videos and images.
type MediaStore interface {
	media.Store
}

// EventPublisher announces moderation decisions and hands failed media
// cleanups over to the background consumer.
type EventPublisher interface {
	PublishModeration(ctx context.Context, ev queue.ModerationEvent) error
	PublishMediaCleanup(ctx context.Context, ev queue.MediaCleanupEvent) error
}
