package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

func ptr[T any](v T) *T { return &v }

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func addUser(t *testing.T, db *servicetest.DB, email, role string) service.Principal {
	t.Helper()
	u := model.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: "x", Role: role}
	if err := db.Users().Create(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return service.Principal{UserID: u.ID, Role: u.Role}
}

func addProduct(t *testing.T, db *servicetest.DB, name string, price float64) model.Product {
	t.Helper()
	p := model.Product{Name: name, Slug: name, Brand: "Apple", Category: "Smartphone", Price: price, InStock: true}
	if err := db.Products().Create(context.Background(), &p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func addListing(t *testing.T, db *servicetest.DB, sellerID uint64, title string, price float64, status string) model.Listing {
	t.Helper()
	ctx := context.Background()
	l := model.Listing{
		Title: title, Slug: title, Description: "a fine item for sale", Price: price,
		Category: "Laptop", Condition: "Bon état", SellerID: sellerID, Status: model.StatusPending,
		Video:  model.Video{URL: "/uploads/listings/videos/" + title + ".mp4", PublicID: "listings/videos/" + title + ".mp4"},
		Images: []model.Media{{URL: "/uploads/listings/images/" + title + ".png", PublicID: "listings/images/" + title + ".png"}},
	}
	if err := db.Listings().Create(ctx, &l); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if status != model.StatusPending {
		if err := db.Listings().SetStatus(ctx, l.ID, status); err != nil {
			t.Fatalf("set status: %v", err)
		}
		l.Status = status
		l.VideoVerified = status == model.StatusActive
	}
	return l
}
