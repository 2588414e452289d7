package model

import "time"

// Brands and Categories are closed enumerations.
var (
	Brands     = []string{"Samsung", "Xiaomi", "Asus", "Sony", "Apple", "Lenovo"}
	Categories = []string{"Smartphone", "Laptop", "Wearable", "Accessoire"}
)

// Product is a catalogue entry. Rating and NumReviews are derived from the
// product's reviews and are only ever written by the rating recomputation.
type Product struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Brand       string            `json:"brand"`
	Category    string            `json:"category"`
	Price       float64           `json:"price"`
	Description string            `json:"description"`
	Specs       map[string]string `json:"specs"`
	Image       string            `json:"image"`
	InStock     bool              `json:"inStock"`
	Rating      float64           `json:"rating"`
	NumReviews  int               `json:"numReviews"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ProductSummary is the product view embedded in favorites and in a user's
// own reviews.
type ProductSummary struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Image      string  `json:"image"`
	Price      float64 `json:"price"`
	Brand      string  `json:"brand"`
	Category   string  `json:"category"`
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"numReviews"`
	InStock    bool    `json:"inStock"`
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID: p.ID, Name: p.Name, Slug: p.Slug, Image: p.Image, Price: p.Price,
		Brand: p.Brand, Category: p.Category, Rating: p.Rating,
		NumReviews: p.NumReviews, InStock: p.InStock,
	}
}

// NameCount is one bucket of a grouped count (brands, categories, statuses).
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
