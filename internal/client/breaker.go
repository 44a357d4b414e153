package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"grocery/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// circuitBreaker stops all fetches for a cooldown once the site answers
// with its bot-check page.
type circuitBreaker struct {
	mu           sync.RWMutex
	marker       string
	cooldown     time.Duration
	blockedUntil time.Time
	now          func() time.Time
}

func newCircuitBreaker(marker string, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{
		marker:   marker,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// allow returns domain.ErrBlocked while the breaker is open.
func (b *circuitBreaker) allow() error {
	b.mu.RLock()
	now := b.now()
	until := b.blockedUntil
	b.mu.RUnlock()

	if until.IsZero() {
		return nil
	}
	if now.Before(until) {
		remaining := until.Sub(now).Round(time.Second)
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining)
		return fmt.Errorf("%w: requests disabled for %v more", domain.ErrBlocked, remaining)
	}

	b.mu.Lock()
	if !b.blockedUntil.IsZero() && !now.Before(b.blockedUntil) {
		b.blockedUntil = time.Time{}
		log.Infof("✅ Circuit breaker closed - requests are allowed again")
	}
	b.mu.Unlock()
	return nil
}

// inspect trips the breaker when html is the bot-check page.
func (b *circuitBreaker) inspect(pageURL, html string) error {
	if b.marker == "" || !strings.Contains(html, b.marker) {
		return nil
	}

	b.mu.Lock()
	b.blockedUntil = b.now().Add(b.cooldown)
	until := b.blockedUntil
	b.mu.Unlock()

	log.Warnf("🚫 Bot check served for %s, pausing requests until %v", pageURL, until.Format("15:04:05"))
	return fmt.Errorf("%w: bot check served for %s", domain.ErrBlocked, pageURL)
}
