package model

import "time"

// Listing statuses. A listing starts pending; only an admin moves it.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
	StatusSold     = "sold"
)

// Conditions is the closed set of item conditions a seller can declare.
var Conditions = []string{"Comme neuf", "Très bon état", "Bon état", "État correct"}

// Statuses lists every listing status.
var Statuses = []string{StatusPending, StatusActive, StatusRejected, StatusSold}

// Media is a reference to an object held by the media store.
type Media struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Video is the mandatory verification video of a listing.
type Video struct {
	URL      string  `json:"url"`
	PublicID string  `json:"publicId"`
	Duration float64 `json:"duration"`
}

// Listing is a single seller's marketplace offer for one physical item.
// VideoVerified is true exactly when Status is active.
type Listing struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Condition     string    `json:"condition"`
	Images        []Media   `json:"images"`
	Video         Video     `json:"video"`
	VideoVerified bool      `json:"videoVerified"`
	SellerID      uint64    `json:"-"`
	Seller        *Seller   `json:"seller,omitempty"`
	Status        string    `json:"status"`
	Location      string    `json:"location"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MediaIDs returns the public ids of every stored object of the listing,
// video first.
func (l Listing) MediaIDs() []string {
	ids := make([]string, 0, len(l.Images)+1)
	if l.Video.PublicID != "" {
		ids = append(ids, l.Video.PublicID)
	}
	for _, img := range l.Images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}
