package client

import (
	"context"
	"fmt"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain"
	"grocery/scraper/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// httpFetcher fetches server-rendered HTML without a browser. Waiting for an
// element means checking that it is present in the returned markup.
type httpFetcher struct {
	cfg        config.ScraperConfig
	rl         ratelimit.Limiter
	httpClient *resty.Client
	breaker    *circuitBreaker
}

func NewHTTPFetcher(cfg config.ScraperConfig, proxySupplier proxy.ProxySupplier) Fetcher {
	client := resty.New().
		SetTimeout(cfg.RequestTimeoutDuration()).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using proxy: %s", proxyURL)
		}
	}

	return &httpFetcher{
		cfg:        cfg,
		rl:         newLimiter(cfg.MaxRequestsPerSecond),
		httpClient: client,
		breaker:    newCircuitBreaker(cfg.BlockMarker, cfg.BlockCooldownDuration()),
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url, waitFor string) (*Page, error) {
	if err := f.breaker.allow(); err != nil {
		return nil, err
	}

	f.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeoutDuration())
	defer cancel()

	log.Infof("🌐 Opening: %s", url)
	resp, err := f.httpClient.R().
		SetContext(reqCtx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error for %s: %s", url, resp.Status())
	}

	html := resp.String()
	if err := f.breaker.inspect(url, html); err != nil {
		return nil, err
	}

	page := NewPage(url, html)
	if waitFor == "" {
		return page, nil
	}

	doc, err := page.Document()
	if err != nil {
		return nil, err
	}
	if doc.Find(waitFor).Length() == 0 {
		return nil, fmt.Errorf("%w: %q not present on %s", domain.ErrFetchTimeout, waitFor, url)
	}

	return page, nil
}
