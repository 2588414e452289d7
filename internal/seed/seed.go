// Package seed loads the starter product catalogue.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/service"
)

//go:embed products.json
var catalogue []byte

// ProductCreator is the part of service.ProductService the seeder needs.
type ProductCreator interface {
	Create(ctx context.Context, in service.ProductInput) (model.Product, error)
}

// Result counts what a run did. ByCategory only counts created products.
type Result struct {
	Created    int
	Skipped    int
	ByCategory map[string]int
}

// Products decodes the embedded catalogue.
func Products() ([]service.ProductInput, error) {
	var in []service.ProductInput
	if err := json.Unmarshal(catalogue, &in); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return in, nil
}

// Run creates every catalogue product through the product service, so the
// usual validation and slug rules apply. Products whose slug already exists
// are skipped, which makes the run safe to repeat.
func Run(ctx context.Context, products ProductCreator) (Result, error) {
	items, err := Products()
	if err != nil {
		return Result{}, err
	}
	res := Result{ByCategory: map[string]int{}}
	for _, in := range items {
		p, err := products.Create(ctx, in)
		switch {
		case err == nil:
			res.Created++
			res.ByCategory[p.Category]++
		case errors.Is(err, service.ErrConflict):
			res.Skipped++
			logger.Debug(ctx).Str("name", in.Name).Msg("seed: product exists, skipped")
		default:
			return res, fmt.Errorf("seed %q: %w", in.Name, err)
		}
	}
	return res, nil
}
