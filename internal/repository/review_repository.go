package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/rating"
)

// ReviewRepo persists reviews. Every write recomputes the reviewed
// product's aggregate rating in the same transaction, with the product row
// locked so concurrent writers on one product are serialized.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// lockProduct takes a row lock on the product, failing with ErrNotFound
// when it does not exist.
func lockProduct(ctx context.Context, tx *sql.Tx, productID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM products WHERE id=? FOR UPDATE", productID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// recomputeRating derives rating and num_reviews of a product from the
// full current set of its reviews.
func recomputeRating(ctx context.Context, tx *sql.Tx, productID uint64) error {
	rows, err := tx.QueryContext(ctx, "SELECT rating FROM reviews WHERE product_id=? FOR SHARE", productID)
	if err != nil {
		return err
	}
	var ratings []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		ratings = append(ratings, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	agg := rating.Compute(ratings)
	_, err = tx.ExecContext(ctx,
		"UPDATE products SET rating=?, num_reviews=? WHERE id=?", agg.Average, agg.Count, productID)
	return err
}

const reviewColumns = "r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, r.updated_at"

func scanReviewWithAuthor(row interface{ Scan(...any) error }) (model.Review, error) {
	var (
		rv model.Review
		a  model.Author
	)
	err := row.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
		&a.FirstName, &a.LastName)
	a.ID = rv.UserID
	rv.User = &a
	return rv, err
}

// ListByProduct returns the reviews of a product with their authors, newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+reviewColumns+", u.first_name, u.last_name"+
		" FROM reviews r JOIN users u ON u.id = r.user_id"+
		" WHERE r.product_id = ? ORDER BY r.created_at DESC, r.id DESC", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReviewWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ListByUser returns a user's reviews with a summary of each reviewed
// product, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+reviewColumns+
		", p.name, p.slug, p.image, p.price, p.brand, p.category, p.rating, p.num_reviews, p.in_stock"+
		" FROM reviews r JOIN products p ON p.id = r.product_id"+
		" WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var (
			rv model.Review
			ps model.ProductSummary
		)
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
			&ps.Name, &ps.Slug, &ps.Image, &ps.Price, &ps.Brand, &ps.Category, &ps.Rating, &ps.NumReviews, &ps.InStock); err != nil {
			return nil, err
		}
		ps.ID = rv.ProductID
		rv.Product = &ps
		out = append(out, rv)
	}
	return out, rows.Err()
}

// GetByID returns a review with its author.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReviewWithAuthor(r.db.QueryRowContext(ctx, "SELECT "+reviewColumns+", u.first_name, u.last_name"+
		" FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return rv, err
}

// Create inserts rv and recomputes the product rating. A missing product
// yields ErrNotFound; an existing review by the same user yields ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockProduct(ctx, tx, rv.ProductID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO reviews (user_id, product_id, rating, comment, created_at, updated_at) VALUES (?,?,?,?,?,?)",
			rv.UserID, rv.ProductID, rv.Rating, rv.Comment, now, now)
		if err != nil {
			switch {
			case isDuplicate(err):
				return ErrConflict
			case isMissingParent(err):
				return ErrNotFound
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rv.ID = uint64(id)
		rv.CreatedAt, rv.UpdatedAt = now, now
		return recomputeRating(ctx, tx, rv.ProductID)
	})
}

// Update rewrites rating and comment of rv and recomputes the product rating.
func (r *ReviewRepo) Update(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockProduct(ctx, tx, rv.ProductID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE reviews SET rating=?, comment=?, updated_at=? WHERE id=?", rv.Rating, rv.Comment, now, rv.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		rv.UpdatedAt = now
		return recomputeRating(ctx, tx, rv.ProductID)
	})
}

// Delete removes a review and recomputes the rating of its product.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var productID uint64
		err := tx.QueryRowContext(ctx, "SELECT product_id FROM reviews WHERE id=?", id).Scan(&productID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, productID)
	})
}
