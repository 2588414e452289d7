package model

// Stats is the admin dashboard summary.
type Stats struct {
	Users              int64       `json:"users"`
	Products           int64       `json:"products"`
	Listings           int64       `json:"listings"`
	Reviews            int64       `json:"reviews"`
	PendingListings    int64       `json:"pendingListings"`
	ActiveListings     int64       `json:"activeListings"`
	MarketplaceRevenue float64     `json:"marketplaceRevenue"`
	SoldValue          float64     `json:"soldValue"`
	NewUsersThisWeek   int64       `json:"newUsersThisWeek"`
	ListingsByCategory []NameCount `json:"listingsByCategory"`
	ListingsByStatus   []NameCount `json:"listingsByStatus"`
}
