package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/models"
)

// Upstream is the analytics backend the dashboard data comes from
type Upstream interface {
	FetchSeries(ctx context.Context, country, productID string) ([]models.MonthlyRecord, error)
	FetchForecasts(ctx context.Context, productID string) ([]models.ForecastRecord, error)
}

// TradeDataService fetches upstream records through the cache with bounded concurrency
type TradeDataService struct {
	cache      *CacheService
	upstream   Upstream
	workerPool chan struct{} // Semaphore for bounded concurrency
}

func NewTradeDataService(cfg *config.Config, cache *CacheService, upstream Upstream) *TradeDataService {
	size := cfg.MaxConcurrentFetches
	if size < 1 {
		size = 1
	}
	return &TradeDataService{
		cache:      cache,
		upstream:   upstream,
		workerPool: make(chan struct{}, size),
	}
}

// Series returns the monthly records for a country and product. The bool
// reports whether they came from the cache.
func (s *TradeDataService) Series(ctx context.Context, country, productID string) ([]models.MonthlyRecord, bool, error) {
	if cached, found := s.cache.GetSeries(ctx, country, productID); found {
		return cached, true, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, false, err
	}
	defer s.release()

	records, err := s.upstream.FetchSeries(ctx, country, productID)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.SetSeries(ctx, country, productID, records); err != nil {
		log.Warn().Err(err).Str("country", country).Str("product", productID).Msg("failed to cache series")
	}
	return records, false, nil
}

// Forecasts returns every country's forecast records for a product
func (s *TradeDataService) Forecasts(ctx context.Context, productID string) ([]models.ForecastRecord, bool, error) {
	if cached, found := s.cache.GetForecasts(ctx, productID); found {
		return cached, true, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, false, err
	}
	defer s.release()

	records, err := s.upstream.FetchForecasts(ctx, productID)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.SetForecasts(ctx, productID, records); err != nil {
		log.Warn().Err(err).Str("product", productID).Msg("failed to cache forecasts")
	}
	return records, false, nil
}

// Acquire worker slot, giving up when the request is cancelled
func (s *TradeDataService) acquire(ctx context.Context) error {
	select {
	case s.workerPool <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TradeDataService) release() {
	<-s.workerPool
}
