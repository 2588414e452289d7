package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/techpulse/marketplace/internal/model"
)

// maxCartItems bounds one quote request.
const maxCartItems = 50

var (
	buyerProtectionFee = decimal.RequireFromString("2.99")
	serviceFeeRate     = decimal.RequireFromString("0.05")
)

// Totals are the derived amounts of a cart, each rounded to cents on its
// own before the total is summed.
type Totals struct {
	Subtotal        decimal.Decimal
	BuyerProtection decimal.Decimal
	ServiceFee      decimal.Decimal
	Total           decimal.Decimal
}

// ComputeTotals prices a cart from its item prices.
func ComputeTotals(prices []decimal.Decimal) Totals {
	sub := decimal.Zero
	for _, p := range prices {
		sub = sub.Add(p)
	}
	sub = sub.Round(2)
	protection := decimal.Zero
	if len(prices) > 0 {
		protection = buyerProtectionFee
	}
	fee := sub.Mul(serviceFeeRate).Round(2)
	return Totals{
		Subtotal:        sub,
		BuyerProtection: protection,
		ServiceFee:      fee,
		Total:           sub.Add(protection).Add(fee),
	}
}

type QuoteItem struct {
	ID    uint64  `json:"id"`
	Title string  `json:"title"`
	Slug  string  `json:"slug"`
	Price float64 `json:"price"`
}

type Quote struct {
	Items           []QuoteItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	BuyerProtection float64     `json:"buyerProtection"`
	ServiceFee      float64     `json:"serviceFee"`
	Total           float64     `json:"total"`
}

type Checkout struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Quote   Quote  `json:"quote"`
}

type CartService struct {
	listings ListingStore
}

func NewCartService(listings ListingStore) *CartService {
	return &CartService{listings: listings}
}

func (s *CartService) resolve(ctx context.Context, ids []uint64) ([]model.Listing, error) {
	if len(ids) > maxCartItems {
		return nil, validationf("a cart holds at most %d listings", maxCartItems)
	}
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, validationf("listing %d appears more than once", id)
		}
		seen[id] = true
	}
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.listings.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			return nil, notFoundf("listing %d not found", id)
		}
		if l.Status != model.StatusActive {
			return nil, conflictf("listing %q is no longer available", l.Title)
		}
		out = append(out, l)
	}
	return out, nil
}

func quoteOf(ls []model.Listing) Quote {
	items := make([]QuoteItem, 0, len(ls))
	prices := make([]decimal.Decimal, 0, len(ls))
	for _, l := range ls {
		items = append(items, QuoteItem{ID: l.ID, Title: l.Title, Slug: l.Slug, Price: l.Price})
		prices = append(prices, decimal.NewFromFloat(l.Price))
	}
	t := ComputeTotals(prices)
	return Quote{
		Items:           items,
		Subtotal:        t.Subtotal.InexactFloat64(),
		BuyerProtection: t.BuyerProtection.InexactFloat64(),
		ServiceFee:      t.ServiceFee.InexactFloat64(),
		Total:           t.Total.InexactFloat64(),
	}
}

// Quote prices a cart of active listings in the order given.
func (s *CartService) Quote(ctx context.Context, ids []uint64) (Quote, error) {
	ls, err := s.resolve(ctx, ids)
	if err != nil {
		return Quote{}, err
	}
	return quoteOf(ls), nil
}

// Checkout simulates a payment for the cart. No state changes.
func (s *CartService) Checkout(ctx context.Context, buyer Principal, ids []uint64) (Checkout, error) {
	if len(ids) == 0 {
		return Checkout{}, validationf("cart is empty")
	}
	ls, err := s.resolve(ctx, ids)
	if err != nil {
		return Checkout{}, err
	}
	for _, l := range ls {
		if l.SellerID == buyer.UserID {
			return Checkout{}, forbiddenf("you cannot buy your own listing %q", l.Title)
		}
	}
	return Checkout{
		OrderID: uuid.NewString(),
		Status:  "simulated",
		Quote:   quoteOf(ls),
	}, nil
}
