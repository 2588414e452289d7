package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techpulse/marketplace/internal/model"
)

// StatsRepo runs the read-only aggregate queries behind the admin dashboard
// and the metrics gauges.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

var countableTables = map[string]bool{
	"users": true, "products": true, "listings": true, "reviews": true,
}

// Count returns the number of rows in one of the entity tables.
func (r *StatsRepo) Count(ctx context.Context, table string) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("count: unknown table %q", table)
	}
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

// CountUsersSince counts users created at or after t.
func (r *StatsRepo) CountUsersSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE created_at >= ?", t.UTC()).Scan(&n)
	return n, err
}

// ListingsByStatus counts listings per status.
func (r *StatsRepo) ListingsByStatus(ctx context.Context) ([]model.NameCount, error) {
	return queryNameCounts(ctx, r.db,
		"SELECT status, COUNT(*) AS n FROM listings GROUP BY status ORDER BY n DESC, status ASC")
}

// ListingsByCategory counts listings per category, largest first.
func (r *StatsRepo) ListingsByCategory(ctx context.Context) ([]model.NameCount, error) {
	return queryNameCounts(ctx, r.db,
		"SELECT category, COUNT(*) AS n FROM listings GROUP BY category ORDER BY n DESC, category ASC")
}

// SumPrice adds up the prices of every listing in status.
func (r *StatsRepo) SumPrice(ctx context.Context, status string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.QueryRowContext(ctx,
		"SELECT SUM(price) FROM listings WHERE status = ?", status).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
