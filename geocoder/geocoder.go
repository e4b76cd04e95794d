package geocoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// ErrNoMatch is returned when the geocoding service has no result for the
// requested location.
var ErrNoMatch = errors.New("no match for location")

type Result struct {
	FormattedAddress string
	Lat              float64
	Lng              float64
}

// Geocoder resolves a free-text location into coordinates and a formatted
// address.
type Geocoder interface {
	Geocode(location string) (*Result, error)
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a geocoding client from GEOCODER_API_KEY and the optional
// GEOCODER_URL override (useful for pointing tests or staging at a fake).
func NewClient() *Client {
	baseURL := os.Getenv("GEOCODER_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     os.Getenv("GEOCODER_API_KEY"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Client) Geocode(location string) (*Result, error) {
	query := url.Values{}
	query.Set("address", location)
	query.Set("key", g.apiKey)

	resp, err := g.httpClient.Get(g.baseURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geocoder response: %w", err)
	}

	if decoded.Status == "ZERO_RESULTS" || len(decoded.Results) == 0 {
		return nil, ErrNoMatch
	}

	first := decoded.Results[0]
	return &Result{
		FormattedAddress: first.FormattedAddress,
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
	}, nil
}
