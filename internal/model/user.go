package model

import "time"

// Roles a user can hold. Only direct administrative action changes a role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors a row of the `users` table. PasswordHash never leaves the
// server; handlers serialize one of the projections below instead.
type User struct {
	ID           uint64    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	SellerRating float64   `json:"sellerRating"`
	SellerSales  int       `json:"sellerSales"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the projection returned by signup, login and profile updates.
type PublicUser struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role}
}

// Profile is the /auth/me view: the public projection plus favorites and
// seller reputation.
type Profile struct {
	PublicUser
	Favorites    []uint64  `json:"favorites"`
	SellerRating float64   `json:"sellerRating"`
	SellerSales  int       `json:"sellerSales"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Author is the user summary embedded in reviews.
type Author struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Seller is the user summary embedded in listings. Email is only filled in
// for admin views.
type Seller struct {
	ID           uint64  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Email        string  `json:"email,omitempty"`
	SellerRating float64 `json:"sellerRating"`
	SellerSales  int     `json:"sellerSales"`
}
