// Package geocode is a thin client for a Nominatim-compatible reverse
// geocoding endpoint. Lookups are best-effort: callers treat failures as
// "no name available", never as a hard error on the user path.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"traveler/internal/config"
)

const userAgent = "traveler/1.0"

// Client queries the configured geocoding endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a client from the app config.
func NewClient(cfg config.Config, log *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.GeocoderBaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.GeocoderTimeoutSec) * time.Second,
		},
		log: log,
	}
}

// reverseResponse is the subset of the Nominatim reverse payload we use.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a short place name.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug("failed to close geocode response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}

	return shortName(payload), nil
}

// shortName prefers "locality, country" over the full display name,
// which tends to be a long comma chain.
func shortName(p reverseResponse) string {
	locality := p.Address.City
	if locality == "" {
		locality = p.Address.Town
	}
	if locality == "" {
		locality = p.Address.Village
	}
	if locality == "" {
		locality = p.Address.Suburb
	}
	if locality == "" {
		locality = p.Address.State
	}

	switch {
	case locality != "" && p.Address.Country != "":
		return locality + ", " + p.Address.Country
	case locality != "":
		return locality
	default:
		return p.DisplayName
	}
}
