package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ServiceAlert describes one active service disruption.
type ServiceAlert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Routes      string `json:"routes,omitempty"`
}

// Arrival is one upcoming vehicle arrival at a stop.
type Arrival struct {
	RouteName   string `json:"routeName"`
	Headsign    string `json:"headsign"`
	MinutesAway int    `json:"minutesAway"`
}

// Stop identifies a transit stop by provider ID and display name.
type Stop struct {
	StopID   string
	StopName string
}

// PopularStops is the fixed list of high-traffic stops queried for
// enrichment. Only the first few are ever fetched per turn.
var PopularStops = []Stop{
	{StopID: "21735", StopName: "Salt Lake Central Station"},
	{StopID: "13009", StopName: "Courthouse Station"},
	{StopID: "13012", StopName: "Gallivan Plaza Station"},
	{StopID: "21700", StopName: "Murray Central Station"},
	{StopID: "21755", StopName: "Provo Central Station"},
	{StopID: "13020", StopName: "University South Campus"},
	{StopID: "21780", StopName: "Ogden Station"},
}

// Provider exposes the transit-data queries used for enrichment.
type Provider interface {
	ServiceAlerts(ctx context.Context) ([]ServiceAlert, error)
	StopArrivals(ctx context.Context, stopID string) ([]Arrival, error)
}

// Ensure Client implements the Provider interface.
var _ Provider = (*Client)(nil)

// Client talks to a UTA-style JSON API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a transit API client. The API key may be empty; requests
// will then be sent unauthenticated and likely rejected, which enrichment
// treats like any other provider failure.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ServiceAlerts fetches the currently active service alerts.
func (c *Client) ServiceAlerts(ctx context.Context) ([]ServiceAlert, error) {
	var payload struct {
		Alerts []ServiceAlert `json:"alerts"`
	}
	if err := c.getJSON(ctx, "/alerts", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Alerts, nil
}

// StopArrivals fetches upcoming arrivals for a single stop.
func (c *Client) StopArrivals(ctx context.Context, stopID string) ([]Arrival, error) {
	var payload struct {
		Arrivals []Arrival `json:"arrivals"`
	}
	params := url.Values{"stopId": {stopID}}
	if err := c.getJSON(ctx, "/arrivals", params, &payload); err != nil {
		return nil, err
	}
	return payload.Arrivals, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build transit request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transit API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode transit response: %w", err)
	}
	return nil
}
