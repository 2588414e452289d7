// Package rating derives a product's aggregate rating from its reviews.
//
// The aggregate is always recomputed from the full set of ratings rather
// than adjusted by a delta, so concurrent or reordered recomputations
// converge on the same value.
package rating

import "github.com/shopspring/decimal"

// Aggregate is the derived rating of a product.
type Aggregate struct {
	Average float64 // mean rounded to one decimal, 0 when Count is 0
	Count   int
}

// Compute returns the mean of ratings rounded half-up to one decimal place,
// together with the number of ratings.
func Compute(ratings []int) Aggregate {
	if len(ratings) == 0 {
		return Aggregate{}
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	avg := decimal.NewFromInt(sum).
		DivRound(decimal.NewFromInt(int64(len(ratings))), 8).
		Round(1)
	return Aggregate{Average: avg.InexactFloat64(), Count: len(ratings)}
}
