package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/techpulse/marketplace/internal/metrics"
	"github.com/techpulse/marketplace/internal/model"
)

type fakeStats struct {
	byStatus []model.NameCount
	products int64
	err      error
}

func (f fakeStats) Count(context.Context, string) (int64, error) { return f.products, f.err }

func (f fakeStats) ListingsByStatus(context.Context) ([]model.NameCount, error) {
	return f.byStatus, f.err
}

func TestRefreshGauges(t *testing.T) {
	s := NewScheduler(fakeStats{
		byStatus: []model.NameCount{{Name: "active", Count: 4}, {Name: "pending", Count: 2}},
		products: 17,
	})
	metrics.Listings.WithLabelValues("sold").Set(9)

	if err := s.RefreshGauges(context.Background()); err != nil {
		t.Fatalf("RefreshGauges: %v", err)
	}
	for status, want := range map[string]float64{"active": 4, "pending": 2, "rejected": 0, "sold": 0} {
		if got := testutil.ToFloat64(metrics.Listings.WithLabelValues(status)); got != want {
			t.Errorf("listings{%s} = %v, want %v", status, got, want)
		}
	}
	if got := testutil.ToFloat64(metrics.CatalogueProducts); got != 17 {
		t.Errorf("products = %v, want 17", got)
	}
}

func TestRefreshGaugesError(t *testing.T) {
	s := NewScheduler(fakeStats{err: errors.New("db down")})
	if err := s.RefreshGauges(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(fakeStats{})
	if err := s.Start("every now and then"); err == nil {
		t.Fatal("expected invalid spec error")
	}
}
