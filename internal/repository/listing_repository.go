package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/techpulse/marketplace/internal/model"
)

// ListingQuery defines filters, ordering and pagination for listings.
// Status "" means any status.
type ListingQuery struct {
	Status    string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	Sort      string // newest | price_asc | price_desc
	Page      int
	Limit     int
}

var listingSorts = map[string]string{
	"newest":     "l.created_at DESC, l.id DESC",
	"price_asc":  "l.price ASC, l.id ASC",
	"price_desc": "l.price DESC, l.id DESC",
}

const listingSelect = `SELECT l.id, l.title, l.slug, l.description, l.price, l.category, l.condition_label,
		l.video_url, l.video_public_id, l.video_duration, l.video_verified, l.seller_id, l.status, l.location,
		l.created_at, l.updated_at,
		u.first_name, u.last_name, u.email, u.seller_rating, u.seller_sales
	FROM listings l
	JOIN users u ON u.id = l.seller_id`

type ListingRepo struct{ db *sql.DB }

func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

func scanListing(row interface{ Scan(...any) error }) (model.Listing, error) {
	var (
		l model.Listing
		s model.Seller
	)
	err := row.Scan(&l.ID, &l.Title, &l.Slug, &l.Description, &l.Price, &l.Category, &l.Condition,
		&l.Video.URL, &l.Video.PublicID, &l.Video.Duration, &l.VideoVerified, &l.SellerID, &l.Status, &l.Location,
		&l.CreatedAt, &l.UpdatedAt,
		&s.FirstName, &s.LastName, &s.Email, &s.SellerRating, &s.SellerSales)
	s.ID = l.SellerID
	l.Seller = &s
	l.Images = []model.Media{}
	return l, err
}

// List returns one page of listings matching q and the total match count.
func (r *ListingRepo) List(ctx context.Context, q ListingQuery) ([]model.Listing, int64, error) {
	where := []string{}
	args := []any{}

	if q.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, q.Status)
	}
	if q.Category != "" {
		where = append(where, "l.category = ?")
		args = append(args, q.Category)
	}
	if q.Condition != "" {
		where = append(where, "l.condition_label = ?")
		args = append(args, q.Condition)
	}
	if q.MinPrice != nil {
		where = append(where, "l.price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "l.price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Search != "" {
		where = append(where, "(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ?)")
		pat := likePattern(q.Search)
		args = append(args, pat, pat)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings l WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := listingSorts[q.Sort]
	if !ok {
		order = listingSorts["newest"]
	}
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)
	out, err := r.query(ctx, listingSelect+" WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?", argsData...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListBySeller returns every listing of a seller, newest first.
func (r *ListingRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Listing, error) {
	return r.query(ctx, listingSelect+" WHERE l.seller_id = ? ORDER BY l.created_at DESC, l.id DESC", sellerID)
}

// GetMany returns the listings with the given ids, in no particular order.
// Unknown ids are skipped.
func (r *ListingRepo) GetMany(ctx context.Context, ids []uint64) ([]model.Listing, error) {
	if len(ids) == 0 {
		return []model.Listing{}, nil
	}
	return r.query(ctx, listingSelect+" WHERE l.id IN ("+placeholders(len(ids))+")", uint64Args(ids)...)
}

func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (model.Listing, error) {
	return r.one(ctx, listingSelect+" WHERE l.id = ? LIMIT 1", id)
}

func (r *ListingRepo) GetBySlug(ctx context.Context, slug string) (model.Listing, error) {
	return r.one(ctx, listingSelect+" WHERE l.slug = ? LIMIT 1", slug)
}

func (r *ListingRepo) one(ctx context.Context, q string, args ...any) (model.Listing, error) {
	out, err := r.query(ctx, q, args...)
	if err != nil {
		return model.Listing{}, err
	}
	if len(out) == 0 {
		return model.Listing{}, ErrNotFound
	}
	return out[0], nil
}

// query runs a listingSelect query and attaches the images of every row.
func (r *ListingRepo) query(ctx context.Context, q string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ListingRepo) attachImages(ctx context.Context, ls []model.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(ls))
	ids := make([]uint64, 0, len(ls))
	for i, l := range ls {
		idx[l.ID] = i
		ids = append(ids, l.ID)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT listing_id, url, public_id FROM listing_images WHERE listing_id IN ("+placeholders(len(ids))+") ORDER BY id",
		uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			lid uint64
			m   model.Media
		)
		if err := rows.Scan(&lid, &m.URL, &m.PublicID); err != nil {
			return err
		}
		if i, ok := idx[lid]; ok {
			ls[i].Images = append(ls[i].Images, m)
		}
	}
	return rows.Err()
}

func insertImages(ctx context.Context, tx *sql.Tx, listingID uint64, imgs []model.Media) error {
	for _, img := range imgs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO listing_images (listing_id, url, public_id) VALUES (?,?,?)",
			listingID, img.URL, img.PublicID); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts l with its images. A slug already in use yields ErrConflict.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	now := time.Now().UTC()
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO listings
			(title, slug, description, price, category, condition_label, video_url, video_public_id, video_duration,
			 video_verified, seller_id, status, location, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			l.Title, l.Slug, l.Description, l.Price, l.Category, l.Condition,
			l.Video.URL, l.Video.PublicID, l.Video.Duration, l.VideoVerified, l.SellerID, l.Status, l.Location, now, now)
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
		l.ID = uint64(id)
		l.CreatedAt, l.UpdatedAt = now, now
		return insertImages(ctx, tx, l.ID, l.Images)
	})
}

// Update writes the seller-editable fields of l and appends added images.
// Video and status are never touched here.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing, added []model.Media) error {
	now := time.Now().UTC()
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE listings SET
			title=?, slug=?, description=?, price=?, category=?, condition_label=?, location=?, updated_at=?
			WHERE id=?`,
			l.Title, l.Slug, l.Description, l.Price, l.Category, l.Condition, l.Location, now, l.ID)
		if err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if err := insertImages(ctx, tx, l.ID, added); err != nil {
			return err
		}
		l.Images = append(l.Images, added...)
		l.UpdatedAt = now
		return nil
	})
}

// SetStatus moves a listing to status and sets video_verified to
// (status == active) in the same statement.
func (r *ListingRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE listings SET status=?, video_verified=?, updated_at=? WHERE id=?",
		status, status == model.StatusActive, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing; its image rows cascade.
func (r *ListingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
