// Package geocode resolves coordinates to display addresses via the
// Nominatim reverse-geocoding API. Display-only: discovery never depends on it.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Place is the display-oriented result of a reverse lookup.
type Place struct {
	DisplayName string `json:"display_name"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
}

// Geocoder looks up a human-readable address for coordinates.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// NominatimClient talks to a Nominatim-compatible endpoint.
type NominatimClient struct {
	BaseURL string
	client  *http.Client
}

func NewNominatimClient(baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimClient{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%s&lon=%s",
		c.BaseURL,
		url.QueryEscape(fmt.Sprintf("%f", lat)),
		url.QueryEscape(fmt.Sprintf("%f", lon)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "milkeyway-backend")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("reverse geocode: decode: %w", err)
	}

	city := payload.Address.City
	if city == "" {
		city = payload.Address.Town
	}
	if city == "" {
		city = payload.Address.Village
	}

	return &Place{
		DisplayName: payload.DisplayName,
		City:        city,
		State:       payload.Address.State,
		Country:     payload.Address.Country,
	}, nil
}
