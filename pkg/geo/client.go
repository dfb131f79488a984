// Package geo provides a client for the external geolocation provider.
// It is consumed only to seed the initial location selection.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned when the provider cannot deliver a position,
// including when the circuit breaker is open.
var ErrUnavailable = errors.New("geolocation unavailable")

// Position is a resolved device position.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Config has the configuration for the geolocation client.
type Config struct {
	URL          string
	Timeout      time.Duration
	HighAccuracy bool
}

// Client calls the geolocation provider over HTTP. Calls are bounded by
// the configured timeout and wrapped in a circuit breaker so that a dead
// provider fails fast instead of hanging every request.
type Client struct {
	url          string
	timeout      time.Duration
	highAccuracy bool
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[Position]
}

// NewClient creates a geolocation client.
func NewClient(cfg Config) *Client {
	st := gobreaker.Settings{
		Name:        "geolocation-cb",
		MaxRequests: 3,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	}
	return &Client{
		url:          cfg.URL,
		timeout:      cfg.Timeout,
		highAccuracy: cfg.HighAccuracy,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		breaker:      gobreaker.NewCircuitBreaker[Position](st),
	}
}

// CurrentPosition resolves the current device position.
// Returns ErrUnavailable for any transport-level failure.
func (c *Client) CurrentPosition(ctx context.Context) (Position, error) {
	pos, err := c.breaker.Execute(func() (Position, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return pos, nil
}

func (c *Client) fetch(ctx context.Context) (Position, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.url
	if c.highAccuracy {
		url += "?accuracy=high"
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("failed to build position request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("position request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("position request returned status %d", resp.StatusCode)
	}
	var pos Position
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		return Position{}, fmt.Errorf("failed to decode position response: %w", err)
	}
	return pos, nil
}
