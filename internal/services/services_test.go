package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/models"
	"c2w-go-api/internal/months"
)

func f(v float64) *float64 { return &v }

type fakeUpstream struct {
	records      []models.MonthlyRecord
	forecasts    []models.ForecastRecord
	seriesErr    error
	forecastErr  error
	seriesCalls  atomic.Int32
	forecastCall atomic.Int32
}

func (u *fakeUpstream) FetchSeries(ctx context.Context, country, productID string) ([]models.MonthlyRecord, error) {
	u.seriesCalls.Add(1)
	if u.seriesErr != nil {
		return nil, u.seriesErr
	}
	return u.records, nil
}

func (u *fakeUpstream) FetchForecasts(ctx context.Context, productID string) ([]models.ForecastRecord, error) {
	u.forecastCall.Add(1)
	if u.forecastErr != nil {
		return nil, u.forecastErr
	}
	return u.forecasts, nil
}

func newTestOrchestrator(t *testing.T, up Upstream) *DashboardOrchestrator {
	t.Helper()
	cfg := &config.Config{MaxConcurrentFetches: 2, FutureMonths: 5}
	cache := newCacheService(time.Minute, nil)
	t.Cleanup(func() { cache.Close() })
	return NewDashboardOrchestrator(cfg, NewTradeDataService(cfg, cache, up), cache)
}

func sampleUpstream() *fakeUpstream {
	return &fakeUpstream{
		records: []models.MonthlyRecord{
			{Month: "March", Sales: f(100), ProductName: "Desiccated coconuts"},
			{Month: "April", Sales: f(120), Prediction: f(130), ProductName: "Desiccated coconuts"},
		},
		forecasts: []models.ForecastRecord{
			{Country: "Germany", GrowthRate: models.PercentRate("1.00%"), Forecast: []float64{9, 9, 9, 9, 9}},
			{Country: "France", GrowthRate: models.PercentRate("4.00%"), Forecast: []float64{140, 150, 160, 170, 180}},
			{Country: "Spain", GrowthRate: models.PercentRate("bad"), Forecast: []float64{1}},
		},
	}
}

func TestCacheGetSetExpire(t *testing.T) {
	c := NewCache[string, int](20 * time.Millisecond)
	defer c.Stop()

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.evictExpired(time.Now())
	assert.Equal(t, 0, c.Len())
}

func TestCachePurgeAndStop(t *testing.T) {
	c := NewCache[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())

	c.Stop()
	c.Stop()
}

func TestCacheServiceKeysBySelection(t *testing.T) {
	s := newCacheService(time.Minute, nil)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SetSeries(ctx, "France", "1", []models.MonthlyRecord{{Month: "May"}}))
	_, ok := s.GetSeries(ctx, "Germany", "1")
	assert.False(t, ok)

	got, ok := s.GetSeries(ctx, "France", "1")
	require.True(t, ok)
	assert.Equal(t, "May", got[0].Month)

	require.NoError(t, s.SetForecasts(ctx, "1", []models.ForecastRecord{{Country: "France"}}))
	_, ok = s.GetForecasts(ctx, "1")
	assert.True(t, ok)

	require.NoError(t, s.Purge(ctx))
	_, ok = s.GetForecasts(ctx, "1")
	assert.False(t, ok)
}

func TestBuildDashboard(t *testing.T) {
	up := sampleUpstream()
	o := newTestOrchestrator(t, up)

	d, err := o.BuildDashboard(context.Background(), DashboardRequest{Country: "France", ProductID: "08011100"})
	require.NoError(t, err)

	assert.Equal(t, []string{"March", "April", "May", "June", "July", "August", "September"}, d.Series.Labels)
	require.Len(t, d.Series.Predictions, 7)
	assert.Nil(t, d.Series.Predictions[1])
	require.NotNil(t, d.Series.Predictions[2])
	assert.Equal(t, 140.0, *d.Series.Predictions[2])
	assert.Empty(t, d.Series.Warnings)

	require.Len(t, d.Forecasts, 3)
	assert.Equal(t, "France", d.Forecasts[0].Country)
	assert.Equal(t, "Germany", d.Forecasts[1].Country)
	assert.Equal(t, "Spain", d.Forecasts[2].Country)
	assert.True(t, d.Forecasts[2].Malformed)
	assert.False(t, d.CacheHit)
}

func TestBuildDashboardUsesCache(t *testing.T) {
	up := sampleUpstream()
	o := newTestOrchestrator(t, up)
	ctx := context.Background()
	req := DashboardRequest{Country: "France", ProductID: "08011100"}

	_, err := o.BuildDashboard(ctx, req)
	require.NoError(t, err)
	d, err := o.BuildDashboard(ctx, req)
	require.NoError(t, err)

	assert.True(t, d.CacheHit)
	assert.Equal(t, int32(1), up.seriesCalls.Load())
	assert.Equal(t, int32(1), up.forecastCall.Load())

	require.NoError(t, o.RefreshCache(ctx))
	_, err = o.BuildDashboard(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.seriesCalls.Load())
}

func TestBuildDashboardWithoutCountryForecast(t *testing.T) {
	o := newTestOrchestrator(t, sampleUpstream())

	d, err := o.BuildDashboard(context.Background(), DashboardRequest{Country: "Belgium", ProductID: "1", FutureCount: 3})
	require.NoError(t, err)

	// falls back to the record prediction column
	require.Len(t, d.Series.Labels, 5)
	assert.Nil(t, d.Series.Predictions[2])
	require.NotNil(t, d.Series.Predictions[3])
	assert.Equal(t, 130.0, *d.Series.Predictions[3])
	assert.NotEmpty(t, d.Series.Warnings)
}

func TestBuildDashboardFetchFailure(t *testing.T) {
	up := sampleUpstream()
	up.forecastErr = errors.New("down")
	o := newTestOrchestrator(t, up)

	_, err := o.BuildDashboard(context.Background(), DashboardRequest{Country: "France", ProductID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch forecasts")
}

func TestBuildDashboardUnknownMonth(t *testing.T) {
	up := sampleUpstream()
	up.records = []models.MonthlyRecord{{Month: "Marzo", Sales: f(1)}}
	o := newTestOrchestrator(t, up)

	_, err := o.BuildDashboard(context.Background(), DashboardRequest{Country: "France", ProductID: "1"})
	assert.ErrorIs(t, err, months.ErrUnknownMonth)
}

func TestLeaderboard(t *testing.T) {
	o := newTestOrchestrator(t, sampleUpstream())

	ranked, err := o.Leaderboard(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "4.00%", ranked[0].Display.GrowthRate)
}

func TestTradeDataHonoursCancellation(t *testing.T) {
	cfg := &config.Config{MaxConcurrentFetches: 1}
	cache := newCacheService(time.Minute, nil)
	defer cache.Close()
	s := NewTradeDataService(cfg, cache, sampleUpstream())

	// occupy the only worker slot
	s.workerPool <- struct{}{}
	defer s.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.Series(ctx, "France", "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectionCommitsLatest(t *testing.T) {
	tr := NewSelectionTracker()
	session := tr.Open()

	first, err := tr.Begin(context.Background(), session)
	require.NoError(t, err)
	second, err := tr.Begin(context.Background(), session)
	require.NoError(t, err)

	assert.Error(t, first.Ctx.Err(), "superseded selection is cancelled")
	assert.NoError(t, second.Ctx.Err())

	newer := &models.Dashboard{Country: "Germany"}
	assert.True(t, tr.Commit(second, newer))
	assert.False(t, tr.Commit(first, &models.Dashboard{Country: "France"}))

	current, err := tr.Current(session)
	require.NoError(t, err)
	assert.Equal(t, "Germany", current.Country)
}

func TestSelectionUnknownSession(t *testing.T) {
	tr := NewSelectionTracker()

	_, err := tr.Begin(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = tr.Current("missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.False(t, tr.Close("missing"))
}

func TestSelectSupersededWhileBuilding(t *testing.T) {
	tr := NewSelectionTracker()
	session := tr.Open()

	started := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		_, err := tr.Select(context.Background(), session, func(ctx context.Context) (*models.Dashboard, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		result <- err
	}()

	<-started
	d, err := tr.Select(context.Background(), session, func(ctx context.Context) (*models.Dashboard, error) {
		return &models.Dashboard{Country: "Spain"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Spain", d.Country)

	assert.ErrorIs(t, <-result, ErrSuperseded)

	current, err := tr.Current(session)
	require.NoError(t, err)
	assert.Equal(t, "Spain", current.Country)
}

func TestSelectBuildError(t *testing.T) {
	tr := NewSelectionTracker()
	session := tr.Open()
	boom := errors.New("boom")

	_, err := tr.Select(context.Background(), session, func(ctx context.Context) (*models.Dashboard, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	current, err := tr.Current(session)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.True(t, tr.Close(session))
}

type memoryStore struct {
	docs      map[string]map[string]interface{}
	deleteErr error
	deletes   []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string]map[string]interface{}{}}
}

func (m *memoryStore) Load(ctx context.Context, collection, key string, dst interface{}) error {
	doc, ok := m.docs[collection][key]
	if !ok {
		return errors.New("not found")
	}
	switch d := dst.(type) {
	case *models.SeriesDocument:
		*d = doc.(models.SeriesDocument)
	case *models.ForecastsDocument:
		*d = doc.(models.ForecastsDocument)
	}
	return nil
}

func (m *memoryStore) Save(ctx context.Context, collection, key string, doc interface{}) error {
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]interface{}{}
	}
	m.docs[collection][key] = doc
	return nil
}

func (m *memoryStore) DeleteAll(ctx context.Context, collection string) error {
	m.deletes = append(m.deletes, collection)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, collection)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func TestCacheServiceReadsThroughStore(t *testing.T) {
	store := newMemoryStore()
	s := newCacheService(time.Minute, store)
	defer s.Close()
	ctx := context.Background()
	assert.True(t, s.FirestoreConnected())

	require.NoError(t, s.SetForecasts(ctx, "1", []models.ForecastRecord{{Country: "France"}}))
	s.forecastsCache.Purge()

	got, ok := s.GetForecasts(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "France", got[0].Country)
}

func TestPurgeDeletesStoredDocuments(t *testing.T) {
	store := newMemoryStore()
	s := newCacheService(time.Minute, store)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SetSeries(ctx, "France", "1", []models.MonthlyRecord{{Month: "May"}}))
	require.NoError(t, s.SetForecasts(ctx, "1", []models.ForecastRecord{{Country: "France"}}))

	require.NoError(t, s.Purge(ctx))
	assert.Equal(t, []string{seriesCollection, forecastsCollection}, store.deletes)

	_, ok := s.GetSeries(ctx, "France", "1")
	assert.False(t, ok)
	_, ok = s.GetForecasts(ctx, "1")
	assert.False(t, ok)
}

func TestRefreshCacheRefetchesAfterPurge(t *testing.T) {
	up := sampleUpstream()
	cfg := &config.Config{MaxConcurrentFetches: 2, FutureMonths: 5}
	cache := newCacheService(time.Minute, newMemoryStore())
	defer cache.Close()
	o := NewDashboardOrchestrator(cfg, NewTradeDataService(cfg, cache, up), cache)
	ctx := context.Background()

	_, err := o.Leaderboard(ctx, "080112")
	require.NoError(t, err)
	require.NoError(t, o.RefreshCache(ctx))
	_, err = o.Leaderboard(ctx, "080112")
	require.NoError(t, err)

	assert.Equal(t, int32(2), up.forecastCall.Load())
}

func TestRefreshCacheReportsStoreError(t *testing.T) {
	store := newMemoryStore()
	store.deleteErr = errors.New("permission denied")
	cache := newCacheService(time.Minute, store)
	defer cache.Close()
	cfg := &config.Config{MaxConcurrentFetches: 1, FutureMonths: 5}
	o := NewDashboardOrchestrator(cfg, NewTradeDataService(cfg, cache, sampleUpstream()), cache)

	err := o.RefreshCache(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, err.Error(), seriesCollection)
}

func TestBuildDashboardRejectsNegativeFuture(t *testing.T) {
	up := sampleUpstream()
	o := newTestOrchestrator(t, up)

	_, err := o.BuildDashboard(context.Background(), DashboardRequest{Country: "France", ProductID: "1", FutureCount: -3})
	assert.ErrorIs(t, err, months.ErrNegativeCount)
	assert.Equal(t, int32(0), up.seriesCalls.Load())
}
