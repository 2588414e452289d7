package service

import (
	"context"
	"errors"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/repository"
)

type FavoriteService struct {
	favorites FavoriteStore
}

func NewFavoriteService(favorites FavoriteStore) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// List returns the favorite products of p as summaries.
func (s *FavoriteService) List(ctx context.Context, p Principal) ([]model.ProductSummary, error) {
	ps, err := s.favorites.Products(ctx, p.UserID)
	if ps == nil {
		ps = []model.ProductSummary{}
	}
	return ps, err
}

func (s *FavoriteService) ids(ctx context.Context, userID uint64) ([]uint64, error) {
	ids, err := s.favorites.IDs(ctx, userID)
	if ids == nil {
		ids = []uint64{}
	}
	return ids, err
}

// Add favorites a product. Adding it twice is a conflict.
func (s *FavoriteService) Add(ctx context.Context, p Principal, productID uint64) ([]uint64, error) {
	if err := s.favorites.Add(ctx, p.UserID, productID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundf("product not found")
		case errors.Is(err, repository.ErrConflict):
			return nil, conflictf("product is already in your favorites")
		}
		return nil, err
	}
	return s.ids(ctx, p.UserID)
}

// Remove drops a product from the favorites whether or not it was there.
func (s *FavoriteService) Remove(ctx context.Context, p Principal, productID uint64) ([]uint64, error) {
	if err := s.favorites.Remove(ctx, p.UserID, productID); err != nil {
		return nil, err
	}
	return s.ids(ctx, p.UserID)
}

// Toggle removes a favorited product and adds any other one.
func (s *FavoriteService) Toggle(ctx context.Context, p Principal, productID uint64) (bool, []uint64, error) {
	current, err := s.ids(ctx, p.UserID)
	if err != nil {
		return false, nil, err
	}
	for _, id := range current {
		if id == productID {
			ids, err := s.Remove(ctx, p, productID)
			return false, ids, err
		}
	}
	ids, err := s.Add(ctx, p, productID)
	return err == nil, ids, err
}
