package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><body><div data-testid="item-stack"><a href="/ip/1">One</a></div></body></html>`))
	})
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Robot or human?</h1></body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testHTTPConfig() config.ScraperConfig {
	return config.ScraperConfig{
		UserAgent:      "test-agent",
		WaitTimeout:    1,
		RequestTimeout: 5,
		BlockMarker:    "Robot or human?",
		BlockCooldown:  60,
		Selectors:      testSelectors,
	}
}

func TestHTTPFetcher(t *testing.T) {
	server := newTestServer(t)
	fetcher := NewHTTPFetcher(testHTTPConfig(), nil)
	ctx := context.Background()

	page, err := fetcher.Fetch(ctx, server.URL+"/listing", testSelectors.ProductGrid)
	require.NoError(t, err)
	entries, err := ExtractListing(page, testSelectors.ProductGrid)
	require.NoError(t, err)
	require.Equal(t, []domain.ListingEntry{{Name: "One", URL: server.URL + "/ip/1"}}, entries)

	_, err = fetcher.Fetch(ctx, server.URL+"/listing", testSelectors.Pagination)
	require.ErrorIs(t, err, domain.ErrFetchTimeout)

	_, err = fetcher.Fetch(ctx, server.URL+"/missing", "")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrFetchTimeout)
}

func TestHTTPFetcherTripsBreaker(t *testing.T) {
	server := newTestServer(t)
	fetcher := NewHTTPFetcher(testHTTPConfig(), nil)
	ctx := context.Background()

	_, err := fetcher.Fetch(ctx, server.URL+"/blocked", "")
	require.ErrorIs(t, err, domain.ErrBlocked)

	// Healthy pages are refused while the breaker is open.
	_, err = fetcher.Fetch(ctx, server.URL+"/listing", "")
	require.ErrorIs(t, err, domain.ErrBlocked)
}
