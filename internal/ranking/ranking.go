package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"c2w-go-api/internal/models"
)

var ErrMalformedGrowthRate = errors.New("malformed growth rate")

const (
	notAvailable = "N/A"
	noForecast   = "No Forecast Available"
)

// ParseGrowthRate returns the growth rate as a percentage. Strings are read as
// percentages with an optional trailing "%", raw numbers as fractions.
func ParseGrowthRate(g models.GrowthRate) (float64, error) {
	if g.IsNumber {
		if math.IsNaN(g.Value) || math.IsInf(g.Value, 0) {
			return 0, fmt.Errorf("%w: %v", ErrMalformedGrowthRate, g.Value)
		}
		return g.Value * 100, nil
	}

	text := strings.TrimSpace(g.Text)
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedGrowthRate, g.Text)
	}
	return v, nil
}

// Rank orders the forecasts by growth rate, highest first. Records with an
// unparseable rate are kept, flagged and placed last. Ties keep input order.
func Rank(records []models.ForecastRecord) []models.RankedForecast {
	ranked := make([]models.RankedForecast, 0, len(records))
	for _, r := range records {
		rate, err := ParseGrowthRate(r.GrowthRate)
		malformed := err != nil
		if malformed {
			rate = math.Inf(-1)
		}

		ranked = append(ranked, models.RankedForecast{
			Country:           r.Country,
			ForecastValues:    r.Forecast,
			GrowthRatePercent: rate,
			Malformed:         malformed,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].GrowthRatePercent > ranked[j].GrowthRatePercent
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Display = Display(ranked[i])
	}
	return ranked
}

// Malformed returns the countries whose growth rate could not be parsed
func Malformed(ranked []models.RankedForecast) []string {
	var countries []string
	for _, r := range ranked {
		if r.Malformed {
			countries = append(countries, r.Country)
		}
	}
	return countries
}

// Display renders the presentation strings of a leaderboard row
func Display(r models.RankedForecast) models.ForecastDisplay {
	forecast := FormatForecastValues(r.ForecastValues)
	summary := noForecast
	if len(forecast) > 0 {
		summary = strings.Join(forecast, ", ")
	}

	return models.ForecastDisplay{
		Forecast:   forecast,
		Summary:    summary,
		GrowthRate: FormatGrowthRate(r.GrowthRatePercent),
	}
}

// FormatGrowthRate renders a percentage with two decimals, e.g. "12.50%"
func FormatGrowthRate(percent float64) string {
	if math.IsInf(percent, 0) || math.IsNaN(percent) {
		return notAvailable
	}
	return decimal.NewFromFloat(percent).StringFixed(2) + "%"
}

// FormatForecastValues renders each value with two decimals
func FormatForecastValues(values []float64) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out = append(out, notAvailable)
			continue
		}
		out = append(out, decimal.NewFromFloat(v).StringFixed(2))
	}
	return out
}
