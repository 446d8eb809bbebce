package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// MonthlyRecord is one month of the upstream chart data for a (country, product) pair
type MonthlyRecord struct {
	Month       string   `json:"month" firestore:"month"`
	Sales       *float64 `json:"sales" firestore:"sales"`
	Prediction  *float64 `json:"prediction" firestore:"prediction"`
	ProductName string   `json:"product_name" firestore:"productName"`
}

// GrowthRate holds the upstream growth_rate field, which arrives either as a
// percent string ("12.50%") or as a raw fraction (0.125).
type GrowthRate struct {
	Text     string  `firestore:"text"`
	Value    float64 `firestore:"value"`
	IsNumber bool    `firestore:"isNumber"`
}

// PercentRate builds a GrowthRate from a percent string
func PercentRate(text string) GrowthRate {
	return GrowthRate{Text: text}
}

// FractionRate builds a GrowthRate from a raw fraction
func FractionRate(v float64) GrowthRate {
	return GrowthRate{Value: v, IsNumber: true}
}

func (g *GrowthRate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*g = GrowthRate{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		return json.Unmarshal(data, &g.Text)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		// Kept verbatim so ranking can flag it instead of failing the whole payload
		g.Text = string(data)
		return nil
	}
	g.Value = v
	g.IsNumber = true
	return nil
}

func (g GrowthRate) MarshalJSON() ([]byte, error) {
	if g.IsNumber {
		return json.Marshal(g.Value)
	}
	return json.Marshal(g.Text)
}

// ForecastRecord is one country's multi-month forecast for a product
type ForecastRecord struct {
	Country    string     `json:"country" firestore:"country"`
	GrowthRate GrowthRate `json:"growth_rate" firestore:"growthRate"`
	Forecast   []float64  `json:"forecast" firestore:"forecast"`
}

// ChartDataset mirrors the dataset shape consumed by the dashboard's line chart
type ChartDataset struct {
	Label                string     `json:"label"`
	BackgroundColor      string     `json:"backgroundColor"`
	BorderColor          string     `json:"borderColor"`
	BorderWidth          int        `json:"borderWidth"`
	HoverBackgroundColor string     `json:"hoverBackgroundColor"`
	HoverBorderColor     string     `json:"hoverBorderColor"`
	Data                 []*float64 `json:"data"`
}

// ChartSeries is the aligned, chart-ready view of a sales history plus its forecast.
// Labels, Sales and Predictions always have the same length.
type ChartSeries struct {
	Labels      []string       `json:"labels"`
	Sales       []*float64     `json:"salesSeries"`
	Predictions []*float64     `json:"predictionSeries"`
	ProductName string         `json:"productName,omitempty"`
	Datasets    []ChartDataset `json:"datasets"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// ForecastDisplay holds the presentation strings for a leaderboard row
type ForecastDisplay struct {
	Forecast   []string `json:"forecast"`
	Summary    string   `json:"summary"`
	GrowthRate string   `json:"growthRate"`
}

// RankedForecast is a leaderboard row. GrowthRatePercent is -Inf for
// records whose growth rate could not be parsed.
type RankedForecast struct {
	Rank              int             `json:"rank"`
	Country           string          `json:"country"`
	ForecastValues    []float64       `json:"forecast"`
	GrowthRatePercent float64         `json:"-"`
	Malformed         bool            `json:"malformed,omitempty"`
	Display           ForecastDisplay `json:"display"`
}

func (r RankedForecast) MarshalJSON() ([]byte, error) {
	type alias RankedForecast
	var rate *float64
	if !math.IsInf(r.GrowthRatePercent, 0) && !math.IsNaN(r.GrowthRatePercent) {
		v := r.GrowthRatePercent
		rate = &v
	}
	return json.Marshal(struct {
		alias
		GrowthRatePercent *float64 `json:"growthRatePercent"`
	}{alias(r), rate})
}

// Dashboard bundles both views for one (country, product) selection
type Dashboard struct {
	Country     string           `json:"country"`
	ProductID   string           `json:"productId"`
	Series      *ChartSeries     `json:"series"`
	Forecasts   []RankedForecast `json:"forecasts"`
	GeneratedAt time.Time        `json:"generatedAt"`
	CacheHit    bool             `json:"cacheHit"`
}

// SeriesDocument is the cached form of an upstream series response
type SeriesDocument struct {
	Records   []MonthlyRecord `json:"records" firestore:"records"`
	FetchedAt time.Time       `json:"fetchedAt" firestore:"fetchedAt"`
}

// ForecastsDocument is the cached form of an upstream forecasts response
type ForecastsDocument struct {
	Records   []ForecastRecord `json:"records" firestore:"records"`
	FetchedAt time.Time        `json:"fetchedAt" firestore:"fetchedAt"`
}

// SelectionRequest is the body of PUT /v1/sessions/:id/selection
type SelectionRequest struct {
	Country   string `json:"country"`
	ProductID string `json:"productId"`
}

// CatalogEntry is a selectable option on the dashboard
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog lists the countries and products the dashboard offers
type Catalog struct {
	Countries []CatalogEntry `json:"countries"`
	Products  []CatalogEntry `json:"products"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
