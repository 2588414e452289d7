// Package jobs runs the periodic background tasks of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/metrics"
	"github.com/techpulse/marketplace/internal/model"
)

// GaugeSource is the subset of the stats store the gauge refresh reads.
type GaugeSource interface {
	Count(ctx context.Context, table string) (int64, error)
	ListingsByStatus(ctx context.Context) ([]model.NameCount, error)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler wraps a cron runner with the jobs registered by Start.
type Scheduler struct {
	sched *cron.Cron
	stats GaugeSource
}

func NewScheduler(stats GaugeSource) *Scheduler {
	return &Scheduler{
		sched: cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		stats: stats,
	}
}

// Start registers the gauge refresh on spec, runs it once immediately and
// starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.sched.AddFunc(spec, func() {
		if err := s.RefreshGauges(context.Background()); err != nil {
			logger.Warn(context.Background()).Err(err).Msg("jobs: gauge refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule gauge refresh %q: %w", spec, err)
	}
	go func() {
		if err := s.RefreshGauges(context.Background()); err != nil {
			logger.Warn(context.Background()).Err(err).Msg("jobs: initial gauge refresh failed")
		}
	}()
	s.sched.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
	}
}

// RefreshGauges recomputes the listing-status and product-count gauges.
// Statuses without listings are reported as zero.
func (s *Scheduler) RefreshGauges(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	byStatus, err := s.stats.ListingsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("listings by status: %w", err)
	}
	counts := make(map[string]int64, len(model.Statuses))
	for _, nc := range byStatus {
		counts[nc.Name] = nc.Count
	}
	for _, st := range model.Statuses {
		metrics.Listings.WithLabelValues(st).Set(float64(counts[st]))
	}

	products, err := s.stats.Count(ctx, "products")
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	metrics.CatalogueProducts.Set(float64(products))
	logger.Debug(ctx).Int64("products", products).Msg("jobs: gauges refreshed")
	return nil
}
