package client

import (
	"testing"
	"time"

	"grocery/scraper/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := newCircuitBreaker("Robot or human?", 10*time.Minute)
	b.now = func() time.Time { return now }

	require.NoError(t, b.allow())
	require.NoError(t, b.inspect("https://www.walmart.com/ip/1", "<html>bread</html>"))
	require.NoError(t, b.allow())

	err := b.inspect("https://www.walmart.com/ip/2", "<h1>Robot or human?</h1>")
	require.ErrorIs(t, err, domain.ErrBlocked)
	require.ErrorIs(t, b.allow(), domain.ErrBlocked)

	now = now.Add(9 * time.Minute)
	require.ErrorIs(t, b.allow(), domain.ErrBlocked)

	now = now.Add(time.Minute)
	require.NoError(t, b.allow())
	require.True(t, b.blockedUntil.IsZero())
}

func TestCircuitBreakerWithoutMarker(t *testing.T) {
	b := newCircuitBreaker("", time.Minute)
	require.NoError(t, b.inspect("https://www.walmart.com", "Robot or human?"))
	require.NoError(t, b.allow())
}
