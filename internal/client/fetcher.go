package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/ratelimit"
)

// Page is a fetched, rendered document.
type Page struct {
	URL  string
	HTML string

	doc *goquery.Document
}

func NewPage(pageURL, html string) *Page {
	return &Page{URL: pageURL, HTML: html}
}

// Document parses the page on first use.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	p.doc = doc
	return doc, nil
}

// Resolve turns an href found on the page into an absolute URL.
func (p *Page) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	base, err := url.Parse(p.URL)
	if err != nil || !base.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// Fetcher loads a URL and waits for an element to become available.
// Every call owns its session and releases it before returning.
type Fetcher interface {
	// Fetch returns domain.ErrFetchTimeout when no element matching waitFor
	// shows up within the configured wait timeout. An empty waitFor only
	// waits for the document itself.
	Fetch(ctx context.Context, url, waitFor string) (*Page, error)
}

func newLimiter(perSecond int) ratelimit.Limiter {
	if perSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(perSecond)
}
