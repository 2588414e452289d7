package model

import "time"

// Review is one user's opinion of one product. A (UserID, ProductID) pair
// is unique.
type Review struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"-"`
	ProductID uint64          `json:"productId"`
	Rating    int             `json:"rating"`
	Comment   string          `json:"comment"`
	User      *Author         `json:"user,omitempty"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
