// Package servicetest provides in-memory implementations of the service
// store interfaces. They mirror the repository semantics (sentinel errors,
// cascades, rating recomputation) closely enough to drive service and
// handler tests without MySQL.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/rating"
	"github.com/techpulse/marketplace/internal/repository"
)

// DB is the shared state behind every store of this package.
type DB struct {
	mu       sync.Mutex
	seq      uint64
	clock    time.Time
	users    map[uint64]model.User
	products map[uint64]model.Product
	listings map[uint64]model.Listing
	reviews  map[uint64]model.Review
	favs     map[uint64][]uint64

	// SlugCollisions makes that many upcoming listing writes fail with a
	// slug conflict.
	SlugCollisions int
}

func New() *DB {
	return &DB{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[uint64]model.User{},
		products: map[uint64]model.Product{},
		listings: map[uint64]model.Listing{},
		reviews:  map[uint64]model.Review{},
		favs:     map[uint64][]uint64{},
	}
}

func (d *DB) nextID() uint64 { d.seq++; return d.seq }

// tick advances the fake clock so creation order is reflected in
// timestamps.
func (d *DB) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *DB) Users() *Users         { return &Users{d} }
func (d *DB) Favorites() *Favorites { return &Favorites{d} }
func (d *DB) Products() *Products   { return &Products{d} }
func (d *DB) Listings() *Listings   { return &Listings{d} }
func (d *DB) Reviews() *Reviews     { return &Reviews{d} }
func (d *DB) Stats() *Stats         { return &Stats{d} }

// recompute rewrites the rating fields of a product from its reviews.
// Callers hold d.mu.
func (d *DB) recompute(productID uint64) {
	p, ok := d.products[productID]
	if !ok {
		return
	}
	var ratings []int
	for _, rv := range d.reviews {
		if rv.ProductID == productID {
			ratings = append(ratings, rv.Rating)
		}
	}
	agg := rating.Compute(ratings)
	p.Rating, p.NumReviews = agg.Average, agg.Count
	d.products[productID] = p
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Users implements service.UserStore.
type Users struct{ d *DB }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, other := range s.d.users {
		if strings.EqualFold(other.Email, u.Email) {
			return repository.ErrEmailExists
		}
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.ID = s.d.nextID()
	u.CreatedAt = s.d.tick()
	u.UpdatedAt = u.CreatedAt
	s.d.users[u.ID] = *u
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, u := range s.d.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u, ok := s.d.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) UpdateProfile(_ context.Context, id uint64, firstName, lastName, email string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u, ok := s.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.d.users {
		if other.ID != id && strings.EqualFold(other.Email, email) {
			return repository.ErrEmailExists
		}
	}
	u.FirstName, u.LastName, u.Email = firstName, lastName, strings.ToLower(email)
	u.UpdatedAt = s.d.tick()
	s.d.users[id] = u
	return nil
}

// SetRole changes a stored role, as an operator would in the database.
func (s *Users) SetRole(id uint64, role string) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u := s.d.users[id]
	u.Role = role
	s.d.users[id] = u
}

func (s *Users) List(_ context.Context) ([]model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := make([]model.User, 0, len(s.d.users))
	for _, u := range s.d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Users) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, l := range s.d.listings {
		if l.SellerID == id {
			return repository.ErrConflict
		}
	}
	touched := map[uint64]bool{}
	for rid, rv := range s.d.reviews {
		if rv.UserID == id {
			touched[rv.ProductID] = true
			delete(s.d.reviews, rid)
		}
	}
	for pid := range touched {
		s.d.recompute(pid)
	}
	delete(s.d.favs, id)
	delete(s.d.users, id)
	return nil
}

// Favorites implements service.FavoriteStore.
type Favorites struct{ d *DB }

func (s *Favorites) IDs(_ context.Context, userID uint64) ([]uint64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return append([]uint64{}, s.d.favs[userID]...), nil
}

func (s *Favorites) Products(_ context.Context, userID uint64) ([]model.ProductSummary, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.ProductSummary{}
	for _, pid := range s.d.favs[userID] {
		if p, ok := s.d.products[pid]; ok {
			out = append(out, p.Summary())
		}
	}
	return out, nil
}

func (s *Favorites) Add(_ context.Context, userID, productID uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.products[productID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.d.users[userID]; !ok {
		return repository.ErrNotFound
	}
	for _, id := range s.d.favs[userID] {
		if id == productID {
			return repository.ErrConflict
		}
	}
	s.d.favs[userID] = append(s.d.favs[userID], productID)
	return nil
}

func (s *Favorites) Remove(_ context.Context, userID, productID uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	ids := s.d.favs[userID][:0:0]
	for _, id := range s.d.favs[userID] {
		if id != productID {
			ids = append(ids, id)
		}
	}
	s.d.favs[userID] = ids
	return nil
}

// Products implements service.ProductStore.
type Products struct{ d *DB }

func (s *Products) List(_ context.Context, q repository.ProductQuery) ([]model.Product, int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []model.Product
	for _, p := range s.d.products {
		switch {
		case q.Category != "" && p.Category != q.Category,
			q.Brand != "" && p.Brand != q.Brand,
			q.InStock != nil && p.InStock != *q.InStock,
			q.MinPrice != nil && p.Price < *q.MinPrice,
			q.MaxPrice != nil && p.Price > *q.MaxPrice,
			q.Search != "" && !contains(p.Name, q.Search) && !contains(p.Description, q.Search):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case "price_asc":
			return a.Price < b.Price
		case "price_desc":
			return a.Price > b.Price
		case "rating":
			return a.Rating > b.Rating
		case "name":
			return a.Name < b.Name
		}
		return a.ID > b.ID
	})
	return paginate(out, q.Page, q.Limit), int64(len(out)), nil
}

func (s *Products) Brands(_ context.Context) ([]model.NameCount, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	counts := map[string]int64{}
	for _, p := range s.d.products {
		counts[p.Brand]++
	}
	return sortedCounts(counts), nil
}

func sortedCounts(counts map[string]int64) []model.NameCount {
	out := make([]model.NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Products) GetBySlug(_ context.Context, slug string) (model.Product, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, p := range s.d.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (s *Products) GetByID(_ context.Context, id uint64) (model.Product, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Products) taken(p *model.Product) bool {
	for _, other := range s.d.products {
		if other.ID != p.ID && (other.Name == p.Name || other.Slug == p.Slug) {
			return true
		}
	}
	return false
}

func (s *Products) Create(_ context.Context, p *model.Product) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.taken(p) {
		return repository.ErrConflict
	}
	p.ID = s.d.nextID()
	p.Rating, p.NumReviews = 0, 0
	p.CreatedAt = s.d.tick()
	p.UpdatedAt = p.CreatedAt
	s.d.products[p.ID] = *p
	return nil
}

func (s *Products) Update(_ context.Context, p *model.Product) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.taken(p) {
		return repository.ErrConflict
	}
	p.Rating, p.NumReviews = cur.Rating, cur.NumReviews
	p.UpdatedAt = s.d.tick()
	s.d.products[p.ID] = *p
	return nil
}

func (s *Products) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.products[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, rv := range s.d.reviews {
		if rv.ProductID == id {
			delete(s.d.reviews, rid)
		}
	}
	for uid, ids := range s.d.favs {
		kept := ids[:0:0]
		for _, pid := range ids {
			if pid != id {
				kept = append(kept, pid)
			}
		}
		s.d.favs[uid] = kept
	}
	delete(s.d.products, id)
	return nil
}

// Listings implements service.ListingStore.
type Listings struct{ d *DB }

// withSeller returns a copy of l carrying its seller summary.
func (s *Listings) withSeller(l model.Listing) model.Listing {
	l.Images = append([]model.Media{}, l.Images...)
	if u, ok := s.d.users[l.SellerID]; ok {
		l.Seller = &model.Seller{
			ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email,
			SellerRating: u.SellerRating, SellerSales: u.SellerSales,
		}
	}
	return l
}

func (s *Listings) List(_ context.Context, q repository.ListingQuery) ([]model.Listing, int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []model.Listing
	for _, l := range s.d.listings {
		switch {
		case q.Status != "" && l.Status != q.Status,
			q.Category != "" && l.Category != q.Category,
			q.Condition != "" && l.Condition != q.Condition,
			q.MinPrice != nil && l.Price < *q.MinPrice,
			q.MaxPrice != nil && l.Price > *q.MaxPrice,
			q.Search != "" && !contains(l.Title, q.Search) && !contains(l.Description, q.Search):
			continue
		}
		out = append(out, s.withSeller(l))
	}
	sort.Slice(out, func(i, j int) bool {
		switch q.Sort {
		case "price_asc":
			return out[i].Price < out[j].Price
		case "price_desc":
			return out[i].Price > out[j].Price
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, q.Page, q.Limit), int64(len(out)), nil
}

func (s *Listings) ListBySeller(_ context.Context, sellerID uint64) ([]model.Listing, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.Listing{}
	for _, l := range s.d.listings {
		if l.SellerID == sellerID {
			out = append(out, s.withSeller(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Listings) GetMany(_ context.Context, ids []uint64) ([]model.Listing, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []model.Listing
	for _, id := range ids {
		if l, ok := s.d.listings[id]; ok {
			out = append(out, s.withSeller(l))
		}
	}
	return out, nil
}

func (s *Listings) GetByID(_ context.Context, id uint64) (model.Listing, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	l, ok := s.d.listings[id]
	if !ok {
		return model.Listing{}, repository.ErrNotFound
	}
	return s.withSeller(l), nil
}

func (s *Listings) GetBySlug(_ context.Context, slug string) (model.Listing, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, l := range s.d.listings {
		if l.Slug == slug {
			return s.withSeller(l), nil
		}
	}
	return model.Listing{}, repository.ErrNotFound
}

func (s *Listings) slugTaken(id uint64, slug string) bool {
	if s.d.SlugCollisions > 0 {
		s.d.SlugCollisions--
		return true
	}
	for _, other := range s.d.listings {
		if other.ID != id && other.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Listings) Create(_ context.Context, l *model.Listing) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.users[l.SellerID]; !ok {
		return repository.ErrNotFound
	}
	if s.slugTaken(0, l.Slug) {
		return repository.ErrConflict
	}
	l.ID = s.d.nextID()
	l.CreatedAt = s.d.tick()
	l.UpdatedAt = l.CreatedAt
	stored := *l
	stored.Seller = nil
	stored.Images = append([]model.Media{}, l.Images...)
	s.d.listings[l.ID] = stored
	return nil
}

func (s *Listings) Update(_ context.Context, l *model.Listing, added []model.Media) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.listings[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.slugTaken(l.ID, l.Slug) {
		return repository.ErrConflict
	}
	cur.Title, cur.Slug, cur.Description = l.Title, l.Slug, l.Description
	cur.Price, cur.Category, cur.Condition, cur.Location = l.Price, l.Category, l.Condition, l.Location
	cur.Images = append(append([]model.Media{}, cur.Images...), added...)
	cur.UpdatedAt = s.d.tick()
	s.d.listings[l.ID] = cur
	l.Images = append([]model.Media{}, cur.Images...)
	l.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *Listings) SetStatus(_ context.Context, id uint64, status string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	l, ok := s.d.listings[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = status
	l.VideoVerified = status == model.StatusActive
	l.UpdatedAt = s.d.tick()
	s.d.listings[id] = l
	return nil
}

func (s *Listings) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.listings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.d.listings, id)
	return nil
}

// Reviews implements service.ReviewStore.
type Reviews struct{ d *DB }

func (s *Reviews) withAuthor(rv model.Review) model.Review {
	if u, ok := s.d.users[rv.UserID]; ok {
		rv.User = &model.Author{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	}
	return rv
}

func newestFirst(rs []model.Review) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID > rs[j].ID })
}

func (s *Reviews) ListByProduct(_ context.Context, productID uint64) ([]model.Review, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.Review{}
	for _, rv := range s.d.reviews {
		if rv.ProductID == productID {
			out = append(out, s.withAuthor(rv))
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *Reviews) ListByUser(_ context.Context, userID uint64) ([]model.Review, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.Review{}
	for _, rv := range s.d.reviews {
		if rv.UserID != userID {
			continue
		}
		if p, ok := s.d.products[rv.ProductID]; ok {
			sum := p.Summary()
			rv.Product = &sum
		}
		out = append(out, rv)
	}
	newestFirst(out)
	return out, nil
}

func (s *Reviews) GetByID(_ context.Context, id uint64) (model.Review, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rv, ok := s.d.reviews[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return s.withAuthor(rv), nil
}

func (s *Reviews) Create(_ context.Context, rv *model.Review) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.products[rv.ProductID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.d.reviews {
		if other.UserID == rv.UserID && other.ProductID == rv.ProductID {
			return repository.ErrConflict
		}
	}
	rv.ID = s.d.nextID()
	rv.CreatedAt = s.d.tick()
	rv.UpdatedAt = rv.CreatedAt
	stored := *rv
	stored.User, stored.Product = nil, nil
	s.d.reviews[rv.ID] = stored
	s.d.recompute(rv.ProductID)
	return nil
}

func (s *Reviews) Update(_ context.Context, rv *model.Review) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.reviews[rv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Rating, cur.Comment = rv.Rating, rv.Comment
	cur.UpdatedAt = s.d.tick()
	s.d.reviews[rv.ID] = cur
	rv.UpdatedAt = cur.UpdatedAt
	s.d.recompute(cur.ProductID)
	return nil
}

func (s *Reviews) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rv, ok := s.d.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.d.reviews, id)
	s.d.recompute(rv.ProductID)
	return nil
}

// Stats implements service.StatsStore.
type Stats struct{ d *DB }

func (s *Stats) Count(_ context.Context, table string) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	switch table {
	case "users":
		return int64(len(s.d.users)), nil
	case "products":
		return int64(len(s.d.products)), nil
	case "listings":
		return int64(len(s.d.listings)), nil
	case "reviews":
		return int64(len(s.d.reviews)), nil
	}
	return 0, repository.ErrNotFound
}

func (s *Stats) CountUsersSince(_ context.Context, t time.Time) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var n int64
	for _, u := range s.d.users {
		if !u.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

func (s *Stats) group(key func(model.Listing) string) []model.NameCount {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	counts := map[string]int64{}
	for _, l := range s.d.listings {
		counts[key(l)]++
	}
	return sortedCounts(counts)
}

func (s *Stats) ListingsByStatus(_ context.Context) ([]model.NameCount, error) {
	return s.group(func(l model.Listing) string { return l.Status }), nil
}

func (s *Stats) ListingsByCategory(_ context.Context) ([]model.NameCount, error) {
	return s.group(func(l model.Listing) string { return l.Category }), nil
}

func (s *Stats) SumPrice(_ context.Context, status string) (decimal.Decimal, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	sum := decimal.Zero
	for _, l := range s.d.listings {
		if l.Status == status {
			sum = sum.Add(decimal.NewFromFloat(l.Price))
		}
	}
	return sum, nil
}

// Denylist implements service.TokenDenylist in memory.
type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewDenylist() *Denylist { return &Denylist{revoked: map[string]time.Time{}} }

func (d *Denylist) Revoke(_ context.Context, jti string, exp time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = exp
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}
