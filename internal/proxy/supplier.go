package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxySupplier hands out egress proxies in round-robin order
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// Checker reports whether a proxy can reach the target site.
type Checker func(ctx context.Context, proxyURL string) bool

// NewProxySupplier keeps the configured proxies that pass check, in the
// order they were configured.
func NewProxySupplier(ctx context.Context, proxies []string, check Checker) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	log.Infof("🔄 Testing %d proxies...", len(proxies))

	ok := make([]bool, len(proxies))
	semaphore := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for i, proxyURL := range proxies {
		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			ok[i] = check(ctx, proxyURL)
			if ok[i] {
				log.Infof("✅ Proxy %s is working", proxyURL)
			} else {
				log.Warnf("❌ Proxy %s is not working, skipping", proxyURL)
			}
		}()
	}
	wg.Wait()

	valid := make([]string, 0, len(proxies))
	for i, proxyURL := range proxies {
		if ok[i] {
			valid = append(valid, proxyURL)
		}
	}

	log.Infof("✅ Proxy supplier initialized with %d working proxies out of %d", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}
}

// Get returns the next proxy URL, or "" when none is available
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

// HTTPChecker checks proxies with a plain GET of testURL.
func HTTPChecker(testURL string, timeout time.Duration) Checker {
	return func(ctx context.Context, proxyURL string) bool {
		client := resty.New().
			SetTimeout(timeout).
			SetProxy(proxyURL)

		resp, err := client.R().
			SetContext(ctx).
			Get(testURL)
		if err != nil {
			log.Debugf("Proxy test failed for %s: %v", proxyURL, err)
			return false
		}
		if resp.IsError() {
			log.Debugf("Proxy test failed for %s with status: %s", proxyURL, resp.Status())
			return false
		}
		return true
	}
}
