package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/models"
	"c2w-go-api/internal/months"
	"c2w-go-api/internal/ranking"
	"c2w-go-api/internal/series"
)

// DashboardRequest identifies one dashboard selection
type DashboardRequest struct {
	Country     string
	ProductID   string
	FutureCount int
}

// DashboardOrchestrator coordinates fetching, aligning and ranking for a selection
type DashboardOrchestrator struct {
	data        *TradeDataService
	cache       *CacheService
	futureCount int
}

func NewDashboardOrchestrator(cfg *config.Config, data *TradeDataService, cache *CacheService) *DashboardOrchestrator {
	return &DashboardOrchestrator{
		data:        data,
		cache:       cache,
		futureCount: cfg.FutureMonths,
	}
}

// BuildDashboard fetches both record sets concurrently and shapes them for display.
// Either fetch failing fails the whole dashboard. A zero FutureCount uses the
// configured default.
func (o *DashboardOrchestrator) BuildDashboard(ctx context.Context, req DashboardRequest) (*models.Dashboard, error) {
	if req.FutureCount < 0 {
		return nil, fmt.Errorf("future count %d: %w", req.FutureCount, months.ErrNegativeCount)
	}
	if req.FutureCount == 0 {
		req.FutureCount = o.futureCount
	}

	var (
		records        []models.MonthlyRecord
		forecasts      []models.ForecastRecord
		seriesCached   bool
		forecastCached bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, seriesCached, err = o.data.Series(gctx, req.Country, req.ProductID)
		if err != nil {
			return fmt.Errorf("failed to fetch series: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		forecasts, forecastCached, err = o.data.Forecasts(gctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("failed to fetch forecasts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := []series.Option{series.WithFutureCount(req.FutureCount)}
	if future, ok := futureFor(req.Country, forecasts); ok {
		opts = append(opts, series.WithFuturePredictions(future))
	}

	chart, err := series.Align(records, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to align series: %w", err)
	}
	for _, w := range chart.Warnings {
		log.Warn().Str("country", req.Country).Str("product", req.ProductID).Msg(w)
	}

	return &models.Dashboard{
		Country:     req.Country,
		ProductID:   req.ProductID,
		Series:      chart,
		Forecasts:   o.rank(req.ProductID, forecasts),
		GeneratedAt: time.Now(),
		CacheHit:    seriesCached && forecastCached,
	}, nil
}

// Leaderboard returns the ranked forecasts for a product
func (o *DashboardOrchestrator) Leaderboard(ctx context.Context, productID string) ([]models.RankedForecast, error) {
	forecasts, _, err := o.data.Forecasts(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecasts: %w", err)
	}
	return o.rank(productID, forecasts), nil
}

// RefreshCache drops every cached response, in memory and in Firestore
func (o *DashboardOrchestrator) RefreshCache(ctx context.Context) error {
	if err := o.cache.Purge(ctx); err != nil {
		return err
	}
	log.Info().Msg("cache refreshed")
	return nil
}

func (o *DashboardOrchestrator) rank(productID string, forecasts []models.ForecastRecord) []models.RankedForecast {
	ranked := ranking.Rank(forecasts)
	if bad := ranking.Malformed(ranked); len(bad) > 0 {
		log.Warn().
			Str("product", productID).
			Strs("countries", bad).
			Msg("malformed growth rates ranked last")
	}
	return ranked
}

// futureFor picks the selected country's forecast values for the future slots
func futureFor(country string, forecasts []models.ForecastRecord) ([]*float64, bool) {
	for _, f := range forecasts {
		if strings.EqualFold(f.Country, country) && len(f.Forecast) > 0 {
			return series.Floats(f.Forecast), true
		}
	}
	return nil, false
}
