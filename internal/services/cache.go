package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/models"
)

const (
	seriesCollection    = "series"
	forecastsCollection = "forecasts"
)

// Generic in-memory cache with type safety
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*cacheItem[V]
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]*cacheItem[V]),
		ttl:   ttl,
		done:  make(chan struct{}),
	}

	go c.cleanup(5 * time.Minute)

	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Purge drops every entry
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*cacheItem[V])
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop ends the cleanup goroutine
func (c *Cache[K, V]) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache[K, V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache[K, V]) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// CacheService handles both in-memory and Firestore caching of upstream responses
type CacheService struct {
	ttl            time.Duration
	store          documentStore
	seriesCache    *Cache[string, []models.MonthlyRecord]
	forecastsCache *Cache[string, []models.ForecastRecord]
}

func NewCacheService(cfg *config.Config) *CacheService {
	var store documentStore
	if cfg.FirestoreEnabled {
		client, err := firestore.NewClient(context.Background(), cfg.FirestoreProject)
		if err != nil {
			// fall back to in-memory only
			log.Warn().Err(err).Str("project", cfg.FirestoreProject).Msg("failed to initialize Firestore")
		} else {
			store = &firestoreStore{client: client}
		}
	}

	return newCacheService(cfg.CacheTTL, store)
}

func newCacheService(ttl time.Duration, store documentStore) *CacheService {
	return &CacheService{
		ttl:            ttl,
		store:          store,
		seriesCache:    NewCache[string, []models.MonthlyRecord](ttl),
		forecastsCache: NewCache[string, []models.ForecastRecord](ttl),
	}
}

func seriesKey(country, productID string) string {
	return url.PathEscape(country) + "_" + url.PathEscape(productID)
}

func forecastsKey(productID string) string {
	return url.PathEscape(productID)
}

// FirestoreConnected reports whether the persistent layer is in use
func (s *CacheService) FirestoreConnected() bool {
	return s.store != nil
}

// GetSeries retrieves cached chart records for a country and product
func (s *CacheService) GetSeries(ctx context.Context, country, productID string) ([]models.MonthlyRecord, bool) {
	key := seriesKey(country, productID)
	if records, found := s.seriesCache.Get(key); found {
		return records, true
	}

	if s.store != nil {
		var data models.SeriesDocument
		if err := s.store.Load(ctx, seriesCollection, key, &data); err == nil && time.Since(data.FetchedAt) < s.ttl {
			s.seriesCache.Set(key, data.Records)
			return data.Records, true
		}
	}

	return nil, false
}

// SetSeries stores chart records in memory and, when configured, Firestore
func (s *CacheService) SetSeries(ctx context.Context, country, productID string, records []models.MonthlyRecord) error {
	key := seriesKey(country, productID)
	s.seriesCache.Set(key, records)

	if s.store != nil {
		return s.store.Save(ctx, seriesCollection, key, models.SeriesDocument{
			Records:   records,
			FetchedAt: time.Now(),
		})
	}

	return nil
}

// GetForecasts retrieves cached forecast records for a product
func (s *CacheService) GetForecasts(ctx context.Context, productID string) ([]models.ForecastRecord, bool) {
	key := forecastsKey(productID)
	if records, found := s.forecastsCache.Get(key); found {
		return records, true
	}

	if s.store != nil {
		var data models.ForecastsDocument
		if err := s.store.Load(ctx, forecastsCollection, key, &data); err == nil && time.Since(data.FetchedAt) < s.ttl {
			s.forecastsCache.Set(key, data.Records)
			return data.Records, true
		}
	}

	return nil, false
}

// SetForecasts stores forecast records in memory and, when configured, Firestore
func (s *CacheService) SetForecasts(ctx context.Context, productID string, records []models.ForecastRecord) error {
	key := forecastsKey(productID)
	s.forecastsCache.Set(key, records)

	if s.store != nil {
		return s.store.Save(ctx, forecastsCollection, key, models.ForecastsDocument{
			Records:   records,
			FetchedAt: time.Now(),
		})
	}

	return nil
}

// Purge clears the in-memory layers and deletes every persisted document
func (s *CacheService) Purge(ctx context.Context) error {
	s.seriesCache.Purge()
	s.forecastsCache.Purge()

	if s.store == nil {
		return nil
	}
	for _, collection := range []string{seriesCollection, forecastsCollection} {
		if err := s.store.DeleteAll(ctx, collection); err != nil {
			return fmt.Errorf("failed to purge %s: %w", collection, err)
		}
	}
	return nil
}

// Close stops the janitors and closes the Firestore client
func (s *CacheService) Close() error {
	s.seriesCache.Stop()
	s.forecastsCache.Stop()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
