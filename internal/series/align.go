package series

import (
	"fmt"

	"c2w-go-api/internal/models"
	"c2w-go-api/internal/months"
)

// DefaultFutureCount is the number of months extrapolated past the last record
const DefaultFutureCount = 5

const (
	salesBackground       = "rgba(40,70,75,0.6)"
	salesBorder           = "rgba(40,70,75,1)"
	salesHoverBackground  = "rgba(75,192,192,0.6)"
	salesHoverBorder      = "rgba(75,192,192,1)"
	predictionBackground  = "rgba(255,219,88, 0.6)"
	predictionBorder      = "rgba(255,219,88, 1)"
	predictionHoverBg     = "rgba(255, 99, 132, 0.4)"
	predictionHoverBorder = "rgba(255, 99, 132, 1)"

	unknownProduct = "Unknown Product"
)

type options struct {
	futureCount int
	future      []*float64
	hasFuture   bool
}

// Option configures Align
type Option func(*options)

// WithFutureCount overrides the number of future slots. Negative values are clamped to zero.
func WithFutureCount(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.futureCount = n
	}
}

// WithFuturePredictions supplies the values plotted in the future slots.
// Without it the records' own prediction column is used.
func WithFuturePredictions(values []*float64) Option {
	return func(o *options) {
		o.future = values
		o.hasFuture = true
	}
}

// Align merges the monthly records and the future predictions onto a single
// label axis. Sales never extend into the future slots and predictions are
// never plotted over the historical months.
func Align(records []models.MonthlyRecord, opts ...Option) (*models.ChartSeries, error) {
	o := options{futureCount: DefaultFutureCount}
	for _, opt := range opts {
		opt(&o)
	}

	if len(records) == 0 {
		return &models.ChartSeries{
			Labels:      []string{},
			Sales:       []*float64{},
			Predictions: []*float64{},
			Datasets:    []models.ChartDataset{},
		}, nil
	}

	h := len(records)
	total := h + o.futureCount

	labels := make([]string, 0, total)
	sales := make([]*float64, 0, total)
	recordPredictions := make([]*float64, 0, h)
	for _, r := range records {
		if !months.Valid(r.Month) {
			return nil, &months.UnknownMonthError{Name: r.Month}
		}
		labels = append(labels, r.Month)
		sales = append(sales, r.Sales)
		recordPredictions = append(recordPredictions, r.Prediction)
	}

	future, err := months.NextNames(labels[h-1], o.futureCount)
	if err != nil {
		return nil, err
	}
	labels = append(labels, future...)
	sales = append(sales, make([]*float64, o.futureCount)...)

	source := recordPredictions
	if o.hasFuture {
		source = o.future
	}
	fitted, warning := fit(source, o.futureCount)

	predictions := make([]*float64, h, total)
	predictions = append(predictions, fitted...)

	out := &models.ChartSeries{
		Labels:      labels,
		Sales:       sales,
		Predictions: predictions,
		ProductName: records[0].ProductName,
	}
	if warning != "" {
		out.Warnings = append(out.Warnings, warning)
	}
	out.Datasets = datasets(out)

	return out, nil
}

// fit truncates or null-pads values to exactly n entries
func fit(values []*float64, n int) ([]*float64, string) {
	out := make([]*float64, n)
	copy(out, values)

	switch {
	case len(values) > n:
		return out, fmt.Sprintf("shape mismatch: %d future predictions supplied for %d slots, truncated", len(values), n)
	case len(values) < n:
		return out, fmt.Sprintf("shape mismatch: %d future predictions supplied for %d slots, padded with nulls", len(values), n)
	}
	return out, ""
}

func datasets(s *models.ChartSeries) []models.ChartDataset {
	product := s.ProductName
	if product == "" {
		product = unknownProduct
	}

	return []models.ChartDataset{
		{
			Label:                "Sales for " + product,
			BackgroundColor:      salesBackground,
			BorderColor:          salesBorder,
			BorderWidth:          1,
			HoverBackgroundColor: salesHoverBackground,
			HoverBorderColor:     salesHoverBorder,
			Data:                 s.Sales,
		},
		{
			Label:                "Predictions",
			BackgroundColor:      predictionBackground,
			BorderColor:          predictionBorder,
			BorderWidth:          1,
			HoverBackgroundColor: predictionHoverBg,
			HoverBorderColor:     predictionHoverBorder,
			Data:                 s.Predictions,
		},
	}
}

// Floats converts plain values into the nullable form used by the series
func Floats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}
