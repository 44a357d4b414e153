package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

type listingParser struct {
	selectors    config.SelectorConfig
	excluded     map[string]struct{}
	dropTrailing int
}

func newListingParser(selectors config.SelectorConfig, excludedCategories []string, dropTrailing int) *listingParser {
	excluded := make(map[string]struct{}, len(excludedCategories))
	for _, name := range excludedCategories {
		excluded[normalizeName(name)] = struct{}{}
	}
	return &listingParser{
		selectors:    selectors,
		excluded:     excluded,
		dropTrailing: max(dropTrailing, 0),
	}
}

// ExtractListing returns every anchor under the first element matching
// container, in document order. Anchors without an href are skipped.
func ExtractListing(page *Page, container string) ([]domain.ListingEntry, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	root := doc.Find(container).First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q on %s", domain.ErrNotFound, container, page.URL)
	}

	entries := make([]domain.ListingEntry, 0)
	root.Find("a").Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			log.Debugf("Skipping anchor %d without href on %s", i, page.URL)
			return
		}
		entries = append(entries, domain.ListingEntry{
			Name: cleanText(a.Text()),
			URL:  page.Resolve(href),
		})
	})

	log.Debugf("Extracted %d entries from %q on %s", len(entries), container, page.URL)
	return entries, nil
}

// ResolveLastPage returns the highest page number advertised by the
// pagination control, scanning candidates right to left. It returns 1 when
// there is no control or no numeric candidate.
func ResolveLastPage(page *Page, control, candidates string) int {
	doc, err := page.Document()
	if err != nil {
		log.Warnf("⚠️ Could not parse %s for pagination: %v", page.URL, err)
		return 1
	}

	items := doc.Find(control).First().Find(candidates)
	for i := items.Length() - 1; i >= 0; i-- {
		text := strings.TrimSpace(items.Eq(i).Text())
		if !isDigits(text) {
			continue
		}
		if n, err := strconv.Atoi(text); err == nil && n >= 1 {
			return n
		}
	}
	return 1
}

func (p *listingParser) ParseCategories(page *Page) ([]domain.Category, error) {
	entries, err := ExtractListing(page, p.selectors.CategoryGrid)
	if err != nil {
		return nil, err
	}

	if p.dropTrailing > 0 {
		keep := max(len(entries)-p.dropTrailing, 0)
		for _, entry := range entries[keep:] {
			log.Debugf("Skipping trailing hub link %q", entry.Name)
		}
		entries = entries[:keep]
	}

	categories := make([]domain.Category, 0, len(entries))
	for _, entry := range entries {
		if _, skip := p.excluded[normalizeName(entry.Name)]; skip {
			log.Debugf("Skipping excluded category %q", entry.Name)
			continue
		}
		categories = append(categories, domain.Category{Name: entry.Name, URL: entry.URL})
	}
	return categories, nil
}

// ProbeCategory tells a category page with a subcategory grid apart from one
// that is already a product listing.
func (p *listingParser) ProbeCategory(page *Page) (domain.CategoryProbe, error) {
	entries, err := ExtractListing(page, p.selectors.CategoryGrid)
	if err == nil {
		return domain.CategoryProbe{Kind: domain.ProbeHasSubcategories, Entries: entries}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CategoryProbe{}, err
	}

	doc, err := page.Document()
	if err != nil {
		return domain.CategoryProbe{}, err
	}
	if doc.Find(p.selectors.ProductGrid).Length() > 0 {
		return domain.CategoryProbe{Kind: domain.ProbeProductPage}, nil
	}

	return domain.CategoryProbe{}, fmt.Errorf("%w: neither %q nor %q on %s",
		domain.ErrNotFound, p.selectors.CategoryGrid, p.selectors.ProductGrid, page.URL)
}

func (p *listingParser) ParseProductListing(page *Page) ([]domain.ProductStub, error) {
	entries, err := ExtractListing(page, p.selectors.ProductGrid)
	if err != nil {
		return nil, err
	}

	products := make([]domain.ProductStub, len(entries))
	for i, entry := range entries {
		products[i] = domain.ProductStub{Name: entry.Name, URL: entry.URL}
	}
	return products, nil
}

func (p *listingParser) ParseLastPage(page *Page) int {
	return ResolveLastPage(page, p.selectors.Pagination, p.selectors.PageNumber)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeName(s string) string {
	return strings.ToLower(cleanText(s))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
