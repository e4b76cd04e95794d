package geocoder

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := &Client{
		baseURL:    srv.URL,
		apiKey:     "test-key",
		httpClient: srv.Client(),
	}
	return client, srv
}

func TestGeocode_ParsesFirstResult(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Yosemite", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"formatted_address": "Yosemite Valley, CA, USA",
					"geometry": {"location": {"lat": 37.7456, "lng": -119.5936}}
				},
				{
					"formatted_address": "Somewhere Else",
					"geometry": {"location": {"lat": 0, "lng": 0}}
				}
			]
		}`))
	})
	defer srv.Close()

	result, err := client.Geocode("Yosemite")
	assert.NoError(t, err)
	assert.Equal(t, "Yosemite Valley, CA, USA", result.FormattedAddress)
	assert.Equal(t, 37.7456, result.Lat)
	assert.Equal(t, -119.5936, result.Lng)
}

func TestGeocode_ZeroResults(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	defer srv.Close()

	_, err := client.Geocode("Nowhere At All")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestGeocode_EmptyResults(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "results": []}`))
	})
	defer srv.Close()

	_, err := client.Geocode("Yosemite")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestGeocode_UpstreamError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := client.Geocode("Yosemite")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatch)
}

func TestGeocode_MalformedBody(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer srv.Close()

	_, err := client.Geocode("Yosemite")
	assert.Error(t, err)
}
