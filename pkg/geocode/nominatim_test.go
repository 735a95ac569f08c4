package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatim_Geocode(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "44.4268", "lon": "26.1025"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(
		WithBaseURL(srv.URL),
		WithUserAgent("test-agent/1.0"),
		WithRateLimit(1000),
	)

	result, err := n.Geocode(context.Background(), "Strada Exemplu 12, Sector 3, Bucuresti")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Matched)
	assert.Equal(t, 44.4268, result.Latitude)
	assert.Equal(t, 26.1025, result.Longitude)
	assert.Equal(t, "nominatim", result.Source)
	assert.False(t, result.CacheHit)
	assert.Equal(t, "Strada Exemplu 12, Sector 3, Bucuresti", gotQuery)
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestNominatim_Geocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := NewNominatim(WithBaseURL(srv.URL), WithRateLimit(1000))

	result, err := n.Geocode(context.Background(), "Strada Inexistenta 999, Bucuresti")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Matched)
	assert.Zero(t, result.Latitude)
	assert.Zero(t, result.Longitude)
}

func TestNominatim_Geocode_EmptyQuery(t *testing.T) {
	n := NewNominatim(WithRateLimit(1000))

	result, err := n.Geocode(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Matched)
}

func TestNominatim_Geocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNominatim(WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := n.Geocode(context.Background(), "Strada Test, 5, Bucuresti")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNominatim_Geocode_BadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "not-a-number", "lon": "26.1025"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := n.Geocode(context.Background(), "Strada Test, 5, Bucuresti")
	require.Error(t, err)
}

func TestNominatim_Geocode_ContextCancelled(t *testing.T) {
	n := NewNominatim(WithRateLimit(0.001))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Geocode(ctx, "Strada Test, 5, Bucuresti")
	require.Error(t, err)
}
