package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"c2w-go-api/internal/models"
)

const (
	seriesPath    = "/fetch_chart_data"
	forecastsPath = "/fetch_analyzed_data"
)

// ErrUpstream wraps every failure talking to the analytics backend
var ErrUpstream = errors.New("analytics backend request failed")

// StatusError reports a non-200 answer from the backend
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analytics backend returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// Client talks to the analytics backend that serves chart and forecast data
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSeries returns the monthly sales/prediction records for a country and product
func (c *Client) FetchSeries(ctx context.Context, country, productID string) ([]models.MonthlyRecord, error) {
	params := url.Values{}
	params.Set("country", country)
	params.Set("product_id", productID)

	var records []models.MonthlyRecord
	if err := c.get(ctx, seriesPath, params, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.MonthlyRecord{}
	}
	return records, nil
}

// FetchForecasts returns every country's forecast for a product
func (c *Client) FetchForecasts(ctx context.Context, productID string) ([]models.ForecastRecord, error) {
	params := url.Values{}
	params.Set("product_id", productID)

	var records []models.ForecastRecord
	if err := c.get(ctx, forecastsPath, params, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ForecastRecord{}
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}
