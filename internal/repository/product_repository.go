package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/techpulse/marketplace/internal/model"
)

// ProductQuery defines filters, ordering and pagination for browsing the
// catalogue. Zero values mean "no filter".
type ProductQuery struct {
	Category string
	Brand    string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Sort     string // price_asc | price_desc | rating | name | newest
	Page     int
	Limit    int
}

var productSorts = map[string]string{
	"price_asc":  "p.price ASC, p.id ASC",
	"price_desc": "p.price DESC, p.id DESC",
	"rating":     "p.rating DESC, p.num_reviews DESC, p.id DESC",
	"name":       "p.name ASC",
	"newest":     "p.created_at DESC, p.id DESC",
}

const productColumns = "p.id, p.name, p.slug, p.brand, p.category, p.price, p.description, p.specs, p.image, p.in_stock, p.rating, p.num_reviews, p.created_at, p.updated_at"

type ProductRepo struct{ db *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var (
		p     model.Product
		specs []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Brand, &p.Category, &p.Price, &p.Description,
		&specs, &p.Image, &p.InStock, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	p.Specs = map[string]string{}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specs); err != nil {
			return p, err
		}
	}
	return p, nil
}

func encodeSpecs(specs map[string]string) ([]byte, error) {
	if specs == nil {
		specs = map[string]string{}
	}
	return json.Marshal(specs)
}

// likePattern escapes LIKE wildcards so search terms match literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

// List returns one page of products matching q and the total match count.
func (r *ProductRepo) List(ctx context.Context, q ProductQuery) ([]model.Product, int64, error) {
	where := []string{}
	args := []any{}

	if q.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, q.Category)
	}
	if q.Brand != "" {
		where = append(where, "p.brand = ?")
		args = append(args, q.Brand)
	}
	if q.InStock != nil {
		where = append(where, "p.in_stock = ?")
		args = append(args, *q.InStock)
	}
	if q.MinPrice != nil {
		where = append(where, "p.price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Search != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")
		pat := likePattern(q.Search)
		args = append(args, pat, pat)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := productSorts[q.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	dataSQL := "SELECT " + productColumns + " FROM products p WHERE " + cond +
		" ORDER BY " + order + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Brands counts products per brand, most represented first.
func (r *ProductRepo) Brands(ctx context.Context) ([]model.NameCount, error) {
	return queryNameCounts(ctx, r.db,
		"SELECT brand, COUNT(*) AS n FROM products GROUP BY brand ORDER BY n DESC, brand ASC")
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.slug = ? LIMIT 1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// Create inserts p. A name or slug already in use yields ErrConflict.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	specs, err := encodeSpecs(p.Specs)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx, `INSERT INTO products
		(name, slug, brand, category, price, description, specs, image, in_stock, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Slug, p.Brand, p.Category, p.Price, p.Description, specs, p.Image, p.InStock, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// Update writes every admin-editable column of p. Rating columns are left
// to the review recomputation.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	specs, err := encodeSpecs(p.Specs)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	_, err = r.db.ExecContext(ctx, `UPDATE products SET
		name=?, slug=?, brand=?, category=?, price=?, description=?, specs=?, image=?, in_stock=?, updated_at=?
		WHERE id=?`,
		p.Name, p.Slug, p.Brand, p.Category, p.Price, p.Description, specs, p.Image, p.InStock, now, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	p.UpdatedAt = now
	return nil
}

// Delete removes a product; its reviews and favorites cascade.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func queryNameCounts(ctx context.Context, db *sql.DB, q string, args ...any) ([]model.NameCount, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.NameCount{}
	for rows.Next() {
		var nc model.NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}
