package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/repository"
)

type AdminService struct {
	stats    StatsStore
	users    UserStore
	listings *ListingService
	now      func() time.Time
}

func NewAdminService(stats StatsStore, users UserStore, listings *ListingService) *AdminService {
	return &AdminService{stats: stats, users: users, listings: listings, now: time.Now}
}

// Stats assembles the dashboard figures. The queries run concurrently and
// the first failure cancels the rest.
func (s *AdminService) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	g, ctx := errgroup.WithContext(ctx)

	counts := map[string]*int64{
		"users":    &st.Users,
		"products": &st.Products,
		"listings": &st.Listings,
		"reviews":  &st.Reviews,
	}
	for table, dst := range counts {
		g.Go(func() (err error) {
			*dst, err = s.stats.Count(ctx, table)
			return err
		})
	}
	g.Go(func() (err error) {
		st.NewUsersThisWeek, err = s.stats.CountUsersSince(ctx, s.now().Add(-7*24*time.Hour))
		return err
	})
	g.Go(func() (err error) {
		st.ListingsByCategory, err = s.stats.ListingsByCategory(ctx)
		return err
	})
	g.Go(func() error {
		byStatus, err := s.stats.ListingsByStatus(ctx)
		if err != nil {
			return err
		}
		st.ListingsByStatus = byStatus
		for _, nc := range byStatus {
			switch nc.Name {
			case model.StatusPending:
				st.PendingListings = nc.Count
			case model.StatusActive:
				st.ActiveListings = nc.Count
			}
		}
		return nil
	})
	g.Go(func() error {
		sum, err := s.stats.SumPrice(ctx, model.StatusActive)
		st.MarketplaceRevenue = sum.Round(2).InexactFloat64()
		return err
	})
	g.Go(func() error {
		sum, err := s.stats.SumPrice(ctx, model.StatusSold)
		st.SoldValue = sum.Round(2).InexactFloat64()
		return err
	})

	if err := g.Wait(); err != nil {
		return model.Stats{}, err
	}
	if st.ListingsByCategory == nil {
		st.ListingsByCategory = []model.NameCount{}
	}
	if st.ListingsByStatus == nil {
		st.ListingsByStatus = []model.NameCount{}
	}
	return st, nil
}

func (s *AdminService) Users(ctx context.Context) ([]model.User, error) {
	us, err := s.users.List(ctx)
	if us == nil {
		us = []model.User{}
	}
	return us, err
}

// DeleteUser removes a non-admin user. Their listings go through the
// listing delete path first so their media is released.
func (s *AdminService) DeleteUser(ctx context.Context, admin Principal, id uint64) error {
	if err := RequireAdmin(admin); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("user not found")
	}
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin {
		return forbiddenf("admin accounts cannot be deleted")
	}
	if err := s.listings.DeleteBySeller(ctx, id); err != nil {
		return err
	}
	err = s.users.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("user not found")
	case errors.Is(err, repository.ErrConflict):
		return conflictf("user still owns listings")
	}
	return err
}

// Listings is the moderation queue view.
func (s *AdminService) Listings(ctx context.Context, f ListingFilter) (Page[model.Listing], error) {
	return s.listings.ListForAdmin(ctx, f)
}
