package repository

import (
	"context"
	"database/sql"

	"github.com/techpulse/marketplace/internal/model"
)

// FavoriteRepo persists the user -> product favorites relation.
type FavoriteRepo struct{ db *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// IDs returns the favorited product ids of a user in the order they were added.
func (r *FavoriteRepo) IDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id FROM user_favorites WHERE user_id=? ORDER BY created_at, product_id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Products returns the favorited products of a user, hydrated.
func (r *FavoriteRepo) Products(ctx context.Context, userID uint64) ([]model.ProductSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.name, p.slug, p.image, p.price, p.brand, p.category, p.rating, p.num_reviews, p.in_stock
		FROM user_favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = ?
		ORDER BY f.created_at, f.product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ProductSummary{}
	for rows.Next() {
		var p model.ProductSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Image, &p.Price, &p.Brand, &p.Category,
			&p.Rating, &p.NumReviews, &p.InStock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Add records a favorite. A second add of the same pair yields ErrConflict,
// an unknown user or product yields ErrNotFound.
func (r *FavoriteRepo) Add(ctx context.Context, userID, productID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_favorites (user_id, product_id) VALUES (?,?)", userID, productID)
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return ErrConflict
	case isMissingParent(err):
		return ErrNotFound
	}
	return err
}

// Remove deletes a favorite; removing an absent pair is not an error.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, productID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM user_favorites WHERE user_id=? AND product_id=?", userID, productID)
	return err
}
