package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/queue"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/mocks"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

func newAdmin(t *testing.T, db *servicetest.DB) (*service.AdminService, *mocks.MockMediaStore) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMediaStore(ctrl)
	listings := service.NewListingService(db.Listings(), store, queue.Nop{}, service.ListingConfig{UploadTimeout: time.Second})
	return service.NewAdminService(db.Stats(), db.Users(), listings), store
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc, _ := newAdmin(t, db)
	seller := addUser(t, db, "s@x.com", model.RoleUser)
	addUser(t, db, "a@x.com", model.RoleAdmin)
	addProduct(t, db, "iphone", 999)
	addListing(t, db, seller.UserID, "a", 100.5, model.StatusActive)
	addListing(t, db, seller.UserID, "b", 49.5, model.StatusActive)
	addListing(t, db, seller.UserID, "c", 10, model.StatusPending)
	addListing(t, db, seller.UserID, "d", 75, model.StatusSold)

	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Users != 2 || st.Products != 1 || st.Listings != 4 || st.Reviews != 0 {
		t.Errorf("counts = %+v", st)
	}
	if st.PendingListings != 1 || st.ActiveListings != 2 {
		t.Errorf("status counts = %+v", st)
	}
	if st.MarketplaceRevenue != 150 || st.SoldValue != 75 {
		t.Errorf("revenue = %v sold = %v", st.MarketplaceRevenue, st.SoldValue)
	}
	// Users were created on the fake 2024 clock.
	if st.NewUsersThisWeek != 0 {
		t.Errorf("new users = %d", st.NewUsersThisWeek)
	}
	if len(st.ListingsByCategory) != 1 || st.ListingsByCategory[0].Count != 4 {
		t.Errorf("by category = %+v", st.ListingsByCategory)
	}
	if len(st.ListingsByStatus) != 3 || st.ListingsByStatus[0].Name != model.StatusActive {
		t.Errorf("by status = %+v", st.ListingsByStatus)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc, store := newAdmin(t, db)
	admin := addUser(t, db, "admin@x.com", model.RoleAdmin)
	victim := addUser(t, db, "victim@x.com", model.RoleUser)
	other := addUser(t, db, "other@x.com", model.RoleUser)
	p := addProduct(t, db, "switch", 299)
	l := addListing(t, db, victim.UserID, "gameboy", 60, model.StatusActive)

	reviews := service.NewReviewService(db.Reviews())
	if _, err := reviews.Create(ctx, victim, p.ID, service.ReviewInput{Rating: 1, Comment: "bad"}); err != nil {
		t.Fatal(err)
	}
	if _, err := reviews.Create(ctx, other, p.ID, service.ReviewInput{Rating: 5, Comment: "great"}); err != nil {
		t.Fatal(err)
	}

	wantKind(t, svc.DeleteUser(ctx, other, victim.UserID), service.ErrAuthorization)
	wantKind(t, svc.DeleteUser(ctx, admin, admin.UserID), service.ErrAuthorization)
	wantKind(t, svc.DeleteUser(ctx, admin, 9999), service.ErrNotFound)

	store.EXPECT().Delete(gomock.Any(), l.Video.PublicID).Return(nil)
	store.EXPECT().Delete(gomock.Any(), l.Images[0].PublicID).Return(nil)
	if err := svc.DeleteUser(ctx, admin, victim.UserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := db.Users().GetByID(ctx, victim.UserID); err == nil {
		t.Error("user survived")
	}
	if _, err := db.Listings().GetByID(ctx, l.ID); err == nil {
		t.Error("listing survived")
	}
	if avg, n := productRating(t, db, p.ID); avg != 5 || n != 1 {
		t.Errorf("rating after user deletion = %v (%d)", avg, n)
	}

	users, err := svc.Users(ctx)
	if err != nil || len(users) != 2 || users[0].ID != other.UserID {
		t.Errorf("Users = %+v, %v", users, err)
	}
}
