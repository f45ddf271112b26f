package api

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// ECBPivot is the currency every ECB reference rate is quoted against
const ECBPivot = "EUR"

const (
	defaultMaxRetries = 3

	// inversePrecision is the number of decimal places kept when inverting a quote
	inversePrecision = 20
)

// ECBFeedClient downloads and parses the ECB euro foreign exchange reference rates
type ECBFeedClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     logger.Logger
}

// NewECBFeedClient creates a new feed client for the XML document at feedURL
func NewECBFeedClient(feedURL string, httpClient *http.Client, maxRetries int, log logger.Logger) *ECBFeedClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ECBFeedClient{
		baseURL:    feedURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
		logger: log,
	}
}

// ecbEnvelope mirrors the gesmes:Envelope document; element names match regardless of namespace
type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Cube    *struct {
		Days []ecbDay `xml:"Cube"`
	} `xml:"Cube"`
}

type ecbDay struct {
	Time  string    `xml:"time,attr"`
	Rates []ecbRate `xml:"Cube"`
}

type ecbRate struct {
	Currency string `xml:"currency,attr"`
	Rate     string `xml:"rate,attr"`
}

// FetchSnapshots downloads the feed and returns one snapshot per currency and day
func (c *ECBFeedClient) FetchSnapshots(ctx context.Context) ([]entity.RateSnapshot, error) {
	body, err := c.download(ctx)
	if err != nil {
		return nil, err
	}

	snapshots, err := ParseECBFeed(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched rate feed", map[string]interface{}{
		"url":       c.baseURL,
		"bytes":     len(body),
		"snapshots": len(snapshots),
	})

	return snapshots, nil
}

// download performs the GET with retries on transport errors and 5xx responses
func (c *ECBFeedClient) download(ctx context.Context) ([]byte, error) {
	var (
		lastErr  error
		attempts int
	)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		attempts = attempt
		body, retry, err := c.get(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retry || attempt == c.maxRetries {
			break
		}

		backoffTime := c.backoff(attempt)
		c.logger.Warn("Feed request failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"max_retries": c.maxRetries,
			"backoff":     backoffTime.String(),
			"error":       err.Error(),
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffTime):
		}
	}

	return nil, fmt.Errorf("failed to fetch feed after %d attempts: %w", attempts, lastErr)
}

// get issues a single request and reports whether a failure is worth retrying
func (c *ECBFeedClient) get(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("feed returned error status: %d", resp.StatusCode)
	}

	return body, false, nil
}

// ParseECBFeed parses a gesmes:Envelope document into rate snapshots against EUR.
// The ECB quotes units of currency per 1 EUR; snapshots hold the EUR value of 1 unit,
// so each positive quote is inverted. Non-positive quotes are passed through for the import to reject.
func ParseECBFeed(data []byte) ([]entity.RateSnapshot, error) {
	var envelope ecbEnvelope
	if err := xml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("input XML feed is invalid: %w", err)
	}
	if envelope.Cube == nil || len(envelope.Cube.Days) == 0 {
		return nil, errors.New("input XML feed is invalid: no daily rates")
	}

	var snapshots []entity.RateSnapshot
	for _, day := range envelope.Cube.Days {
		date, err := entity.ParseDate(day.Time)
		if err != nil {
			return nil, fmt.Errorf("input XML feed is invalid: bad date %q", day.Time)
		}

		for _, r := range day.Rates {
			quoted, err := decimal.NewFromString(r.Rate)
			if err != nil {
				return nil, fmt.Errorf("input XML feed is invalid: bad %s rate %q on %s", r.Currency, r.Rate, day.Time)
			}

			rate := quoted
			if quoted.IsPositive() {
				rate = decimal.NewFromInt(1).DivRound(quoted, inversePrecision)
			}

			snapshots = append(snapshots, entity.RateSnapshot{
				Currency: entity.NormalizeCode(r.Currency),
				Pivot:    ECBPivot,
				Rate:     rate,
				Date:     date,
			})
		}
	}

	return snapshots, nil
}
