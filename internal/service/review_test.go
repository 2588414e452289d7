package service_test

import (
	"context"
	"testing"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

func productRating(t *testing.T, db *servicetest.DB, id uint64) (float64, int) {
	t.Helper()
	p, err := db.Products().GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return p.Rating, p.NumReviews
}

func TestSecondReviewByUserIsRejected(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc := service.NewReviewService(db.Reviews())
	u := addUser(t, db, "u@x.com", model.RoleUser)
	p := addProduct(t, db, "pixel-8", 699)

	if _, err := svc.Create(ctx, u, p.ID, service.ReviewInput{Rating: 5, Comment: "Excellent"}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Create(ctx, u, p.ID, service.ReviewInput{Rating: 3, Comment: "Changed my mind"})
	wantKind(t, err, service.ErrConflict)

	if avg, n := productRating(t, db, p.ID); avg != 5 || n != 1 {
		t.Errorf("rating = %v (%d), want 5 (1)", avg, n)
	}
}

func TestRatingFollowsReviewSet(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc := service.NewReviewService(db.Reviews())
	p := addProduct(t, db, "zenbook", 1299)

	var ids []uint64
	var users []service.Principal
	for i, r := range []int{5, 4, 4} {
		u := addUser(t, db, string(rune('a'+i))+"@x.com", model.RoleUser)
		rv, err := svc.Create(ctx, u, p.ID, service.ReviewInput{Rating: r, Comment: "  solid laptop  "})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rv.Comment != "solid laptop" || rv.User == nil {
			t.Errorf("review = %+v", rv)
		}
		ids = append(ids, rv.ID)
		users = append(users, u)
	}
	if avg, n := productRating(t, db, p.ID); avg != 4.3 || n != 3 {
		t.Fatalf("after creates: %v (%d)", avg, n)
	}

	if _, err := svc.Update(ctx, users[0], ids[0], service.ReviewPatch{Rating: ptr(1)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if avg, n := productRating(t, db, p.ID); avg != 3 || n != 3 {
		t.Fatalf("after update: %v (%d)", avg, n)
	}

	if err := svc.Delete(ctx, users[1], ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if avg, n := productRating(t, db, p.ID); avg != 2.5 || n != 2 {
		t.Fatalf("after delete: %v (%d)", avg, n)
	}

	admin := addUser(t, db, "admin@x.com", model.RoleAdmin)
	for _, id := range []uint64{ids[0], ids[2]} {
		if err := svc.Delete(ctx, admin, id); err != nil {
			t.Fatalf("admin Delete: %v", err)
		}
	}
	if avg, n := productRating(t, db, p.ID); avg != 0 || n != 0 {
		t.Fatalf("after deleting all: %v (%d)", avg, n)
	}
}

func TestReviewPermissionsAndValidation(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc := service.NewReviewService(db.Reviews())
	author := addUser(t, db, "author@x.com", model.RoleUser)
	other := addUser(t, db, "other@x.com", model.RoleUser)
	admin := addUser(t, db, "admin@x.com", model.RoleAdmin)
	p := addProduct(t, db, "xperia", 899)

	_, err := svc.Create(ctx, author, 999, service.ReviewInput{Rating: 4, Comment: "good"})
	wantKind(t, err, service.ErrNotFound)
	_, err = svc.Create(ctx, author, p.ID, service.ReviewInput{Rating: 6, Comment: "good"})
	wantKind(t, err, service.ErrValidation)
	_, err = svc.Create(ctx, author, p.ID, service.ReviewInput{Rating: 4, Comment: " ok "})
	wantKind(t, err, service.ErrValidation)

	rv, err := svc.Create(ctx, author, p.ID, service.ReviewInput{Rating: 4, Comment: "good"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Update(ctx, other, rv.ID, service.ReviewPatch{Comment: ptr("hacked")})
	wantKind(t, err, service.ErrAuthorization)
	_, err = svc.Update(ctx, admin, rv.ID, service.ReviewPatch{Comment: ptr("edited")})
	wantKind(t, err, service.ErrAuthorization)
	wantKind(t, svc.Delete(ctx, other, rv.ID), service.ErrAuthorization)
	wantKind(t, svc.Delete(ctx, author, 12345), service.ErrNotFound)

	mine, err := svc.ListMine(ctx, author)
	if err != nil || len(mine) != 1 || mine[0].Product == nil || mine[0].Product.Name != "xperia" {
		t.Errorf("ListMine = %+v, %v", mine, err)
	}
	byProduct, err := svc.ListByProduct(ctx, p.ID)
	if err != nil || len(byProduct) != 1 || byProduct[0].User.ID != author.UserID {
		t.Errorf("ListByProduct = %+v, %v", byProduct, err)
	}
}
