package client

import (
	"context"
	"errors"
	"fmt"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain"
	"grocery/scraper/internal/proxy"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// browserFetcher renders each page in its own headless Chrome instance.
type browserFetcher struct {
	cfg           config.ScraperConfig
	rl            ratelimit.Limiter
	proxySupplier proxy.ProxySupplier
	breaker       *circuitBreaker
}

func NewBrowserFetcher(cfg config.ScraperConfig, proxySupplier proxy.ProxySupplier) Fetcher {
	return &browserFetcher{
		cfg:           cfg,
		rl:            newLimiter(cfg.MaxRequestsPerSecond),
		proxySupplier: proxySupplier,
		breaker:       newCircuitBreaker(cfg.BlockMarker, cfg.BlockCooldownDuration()),
	}
}

func (f *browserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("start-maximized", true),
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	if f.proxySupplier != nil {
		if proxyURL := f.proxySupplier.Get(); proxyURL != "" {
			opts = append(opts, chromedp.ProxyServer(proxyURL))
		}
	}
	return opts
}

func (f *browserFetcher) Fetch(ctx context.Context, url, waitFor string) (*Page, error) {
	if err := f.breaker.allow(); err != nil {
		return nil, err
	}

	f.rl.Take()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	defer cancelTab()

	reqCtx, cancel := context.WithTimeout(tabCtx, f.cfg.RequestTimeoutDuration())
	defer cancel()

	log.Infof("🌐 Opening: %s", url)
	if err := chromedp.Run(reqCtx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	timedOut := false
	if waitFor != "" {
		waitCtx, cancelWait := context.WithTimeout(reqCtx, f.cfg.WaitTimeoutDuration())
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(waitFor, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("failed waiting for %q on %s: %w", waitFor, url, err)
			}
			timedOut = true
		}
	}

	var html string
	if err := chromedp.Run(reqCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to read page source for %s: %w", url, err)
	}

	if err := f.breaker.inspect(url, html); err != nil {
		return nil, err
	}
	if timedOut {
		return nil, fmt.Errorf("%w: %q on %s after %v", domain.ErrFetchTimeout, waitFor, url, f.cfg.WaitTimeoutDuration())
	}

	return NewPage(url, html), nil
}
