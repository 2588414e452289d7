package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/techpulse/marketplace/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, first_name, last_name, email, password_hash, role, seller_rating, seller_sales, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.SellerRating, &u.SellerSales, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts u (whose PasswordHash must already be set) and fills in
// its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateProfile overwrites the editable identity fields of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName, email string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, email=? WHERE id=?",
		firstName, lastName, strings.ToLower(strings.TrimSpace(email)), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes a user together with their reviews, recomputing the rating
// of every product they had reviewed. Listings must be removed beforehand;
// a user still referenced by a listing yields ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT product_id FROM reviews WHERE user_id=? ORDER BY product_id", id)
		if err != nil {
			return err
		}
		var products []uint64
		for rows.Next() {
			var pid uint64
			if err := rows.Scan(&pid); err != nil {
				rows.Close()
				return err
			}
			products = append(products, pid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, pid := range products {
			if err := lockProduct(ctx, tx, pid); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE user_id=?", id); err != nil {
			return err
		}
		for _, pid := range products {
			if err := recomputeRating(ctx, tx, pid); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
		if err != nil {
			if isReferenced(err) {
				return ErrConflict
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
