package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/techpulse/marketplace/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs("Ana", "Lee", "ana@x.com", "hash", model.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	u := &model.User{FirstName: "Ana", LastName: "Lee", Email: " ANA@x.com", PasswordHash: "hash"}
	if err := NewUserRepo(db).Create(context.Background(), u); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestUserCreateSetsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(17, 1))

	u := &model.User{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com", PasswordHash: "hash"}
	if err := NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if u.ID != 17 || u.Role != model.RoleUser || u.CreatedAt.IsZero() {
		t.Fatalf("user not filled in: %+v", u)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE id=?")).WithArgs(uint64(3)).WillReturnError(sql.ErrNoRows)

	if _, err := NewUserRepo(db).GetByID(context.Background(), 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func expectRecompute(mock sqlmock.Sqlmock, productID uint64, ratings []int, wantAvg float64) {
	rows := sqlmock.NewRows([]string{"rating"})
	for _, r := range ratings {
		rows.AddRow(r)
	}
	mock.ExpectQuery(q("SELECT rating FROM reviews WHERE product_id=? FOR SHARE")).WithArgs(productID).WillReturnRows(rows)
	mock.ExpectExec(q("UPDATE products SET rating=?, num_reviews=? WHERE id=?")).
		WithArgs(wantAvg, len(ratings), productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestReviewCreateRecomputesInTx(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM products WHERE id=? FOR UPDATE")).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(q("INSERT INTO reviews")).
		WithArgs(uint64(2), uint64(9), 4, "solid phone", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(31, 1))
	expectRecompute(mock, 9, []int{5, 4, 4}, 4.3)
	mock.ExpectCommit()

	rv := &model.Review{UserID: 2, ProductID: 9, Rating: 4, Comment: "solid phone"}
	if err := NewReviewRepo(db).Create(context.Background(), rv); err != nil {
		t.Fatal(err)
	}
	if rv.ID != 31 {
		t.Errorf("ID = %d, want 31", rv.ID)
	}
}

func TestReviewCreateDuplicateRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM products WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(q("INSERT INTO reviews")).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	rv := &model.Review{UserID: 2, ProductID: 9, Rating: 3, Comment: "again"}
	if err := NewReviewRepo(db).Create(context.Background(), rv); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestReviewCreateMissingProduct(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM products WHERE id=? FOR UPDATE")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rv := &model.Review{UserID: 2, ProductID: 404, Rating: 3, Comment: "ghost"}
	if err := NewReviewRepo(db).Create(context.Background(), rv); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReviewDeleteLastResetsRating(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT product_id FROM reviews WHERE id=?")).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(9))
	mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(q("DELETE FROM reviews WHERE id=?")).WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	expectRecompute(mock, 9, nil, 0)
	mock.ExpectCommit()

	if err := NewReviewRepo(db).Delete(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
}

func TestListingSetStatusKeepsVerifiedInStep(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE listings SET status=?, video_verified=?")).
		WithArgs(model.StatusActive, true, sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE listings SET status=?, video_verified=?")).
		WithArgs(model.StatusRejected, false, sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE listings SET status=?")).
		WithArgs(model.StatusActive, true, sqlmock.AnyArg(), uint64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewListingRepo(db)
	ctx := context.Background()
	if err := repo.SetStatus(ctx, 5, model.StatusActive); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetStatus(ctx, 5, model.StatusRejected); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetStatus(ctx, 6, model.StatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListingCreateSlugCollision(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO listings")).WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	l := &model.Listing{Title: "Pixel", Slug: "pixel-aaaaa", Status: model.StatusPending}
	if err := NewListingRepo(db).Create(context.Background(), l); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestFavoriteAddErrors(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO user_favorites")).WithArgs(uint64(1), uint64(2)).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectExec(q("INSERT INTO user_favorites")).WithArgs(uint64(1), uint64(99)).
		WillReturnError(&mysql.MySQLError{Number: 1452})

	repo := NewFavoriteRepo(db)
	if err := repo.Add(context.Background(), 1, 2); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate: err = %v", err)
	}
	if err := repo.Add(context.Background(), 1, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing product: err = %v", err)
	}
}

func TestProductListBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	inStock := true
	minPrice := 100.0
	mock.ExpectQuery(q("SELECT COUNT(*) FROM products p WHERE p.brand = ? AND p.in_stock = ? AND p.price >= ? AND (LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")).
		WithArgs("Apple", true, 100.0, "%pro\\_max%", "%pro\\_max%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(q("ORDER BY p.price ASC, p.id ASC LIMIT ? OFFSET ?")).
		WithArgs("Apple", true, 100.0, "%pro\\_max%", "%pro\\_max%", 12, 12).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, total, err := NewProductRepo(db).List(context.Background(), ProductQuery{
		Brand: "Apple", InStock: &inStock, MinPrice: &minPrice, Search: "Pro_Max", Sort: "price_asc", Page: 2, Limit: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(out) != 0 {
		t.Fatalf("got %d/%d", len(out), total)
	}
}

func TestStatsSumPriceEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT SUM(price) FROM listings WHERE status = ?")).WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

	sum, err := NewStatsRepo(db).SumPrice(context.Background(), "active")
	if err != nil {
		t.Fatal(err)
	}
	if !sum.IsZero() {
		t.Fatalf("sum = %s, want 0", sum)
	}
	if _, err := NewStatsRepo(db).Count(context.Background(), "secrets"); err == nil {
		t.Fatal("unknown table accepted")
	}
}

func TestTokenDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d := NewTokenDenylist(rdb, "")
	ctx := context.Background()

	if err := d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, err := d.IsRevoked(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("IsRevoked = %v, %v", ok, err)
	}
	if ok, _ := d.IsRevoked(ctx, "jti-2"); ok {
		t.Fatal("unknown jti reported revoked")
	}
	if ttl := mr.TTL("techpulse:revoked:jti-1"); ttl <= 0 || ttl > time.Hour {
		t.Errorf("ttl = %s", ttl)
	}

	// Already expired tokens are not stored.
	_ = d.Revoke(ctx, "old", time.Now().Add(-time.Minute))
	if mr.Exists("techpulse:revoked:old") {
		t.Error("expired token stored")
	}

	nop := NewTokenDenylist(nil, "")
	if err := nop.Revoke(ctx, "x", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, err := nop.IsRevoked(ctx, "x"); ok || err != nil {
		t.Fatal("nil client should never report revoked")
	}
}
