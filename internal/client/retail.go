package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

type RetailClient interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetSubcategories(ctx context.Context, category domain.Category) ([]domain.Subcategory, error)
	GetProductListing(ctx context.Context, listingURL string) ([]domain.ProductStub, error)
	GetSearchLastPage(ctx context.Context, keyword string) (int, error)
	GetSearchPage(ctx context.Context, keyword string, pageNumber int) (*domain.SearchPage, error)
	GetProductDetails(ctx context.Context, productURL string) (*domain.ProductRecord, error)
}

type retailClient struct {
	config  config.ScraperConfig
	fetcher Fetcher
	parser  *listingParser
}

func NewRetailClient(cfg config.ScraperConfig, fetcher Fetcher) RetailClient {
	return &retailClient{
		config:  cfg,
		fetcher: fetcher,
		parser:  newListingParser(cfg.Selectors, cfg.ExcludedCategories, cfg.DropTrailingCategories),
	}
}

// SearchURL builds the search results URL for keyword. Page numbers below 1
// leave the page parameter out.
func SearchURL(baseURL, searchPath, keyword string, pageNumber int) string {
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(searchPath, "/") + "?q=" + url.QueryEscape(keyword)
	if pageNumber >= 1 {
		u += "&page=" + strconv.Itoa(pageNumber)
	}
	return u
}

func (c *retailClient) searchURL(keyword string, pageNumber int) string {
	return SearchURL(c.config.BaseURL, c.config.SearchPath, keyword, pageNumber)
}

func (c *retailClient) GetCategories(ctx context.Context) ([]domain.Category, error) {
	page, err := c.fetcher.Fetch(ctx, c.config.CategoriesURL, c.config.Selectors.CategoryGrid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category hub: %w", err)
	}

	categories, err := c.parser.ParseCategories(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category hub: %w", err)
	}

	log.Infof("✅ Total grocery categories found: %d", len(categories))
	return categories, nil
}

func (c *retailClient) GetSubcategories(ctx context.Context, category domain.Category) ([]domain.Subcategory, error) {
	waitFor := c.config.Selectors.CategoryGrid + ", " + c.config.Selectors.ProductGrid

	page, err := c.fetcher.Fetch(ctx, category.URL, waitFor)
	if err != nil {
		if errors.Is(err, domain.ErrFetchTimeout) {
			return nil, fmt.Errorf("%w: category %s: %w", domain.ErrNotFound, category.URL, err)
		}
		return nil, fmt.Errorf("failed to fetch category %s: %w", category.URL, err)
	}

	probe, err := c.parser.ProbeCategory(page)
	if err != nil {
		return nil, fmt.Errorf("failed to probe category %s: %w", category.URL, err)
	}

	if probe.Kind == domain.ProbeProductPage {
		log.Infof("📦 %s is a product listing, storing it as its own subcategory", category.Name)
		return []domain.Subcategory{domain.SelfSubcategory(category)}, nil
	}

	subcategories := make([]domain.Subcategory, len(probe.Entries))
	for i, entry := range probe.Entries {
		subcategories[i] = domain.Subcategory{
			CategoryName:    category.Name,
			CategoryURL:     category.URL,
			SubcategoryName: entry.Name,
			SubcategoryURL:  entry.URL,
		}
	}

	log.Infof("✅ Total subcategories found for %s: %d", category.Name, len(subcategories))
	return subcategories, nil
}

func (c *retailClient) GetProductListing(ctx context.Context, listingURL string) ([]domain.ProductStub, error) {
	page, err := c.fetcher.Fetch(ctx, listingURL, c.config.Selectors.ProductGrid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product listing %s: %w", listingURL, err)
	}

	products, err := c.parser.ParseProductListing(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product listing %s: %w", listingURL, err)
	}

	log.Infof("✅ Total products found on %s: %d", listingURL, len(products))
	return products, nil
}

// GetSearchLastPage treats a missing pagination control as a single page.
func (c *retailClient) GetSearchLastPage(ctx context.Context, keyword string) (int, error) {
	searchURL := c.searchURL(keyword, 0)

	page, err := c.fetcher.Fetch(ctx, searchURL, c.config.Selectors.Pagination)
	if err != nil {
		if errors.Is(err, domain.ErrFetchTimeout) {
			log.Warnf("⚠️ No pagination on %s, assuming a single page: %v", searchURL, err)
			return 1, nil
		}
		return 0, fmt.Errorf("failed to fetch search results %s: %w", searchURL, err)
	}

	lastPage := c.parser.ParseLastPage(page)
	log.Infof("📄 Total pages available for %q: %d", keyword, lastPage)
	return lastPage, nil
}

func (c *retailClient) GetSearchPage(ctx context.Context, keyword string, pageNumber int) (*domain.SearchPage, error) {
	products, err := c.GetProductListing(ctx, c.searchURL(keyword, pageNumber))
	if err != nil {
		return nil, err
	}

	return &domain.SearchPage{
		Keyword:    keyword,
		PageNumber: pageNumber,
		Products:   products,
	}, nil
}

func (c *retailClient) GetProductDetails(ctx context.Context, productURL string) (*domain.ProductRecord, error) {
	page, err := c.fetcher.Fetch(ctx, productURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", productURL, err)
	}

	product, err := extractProduct(page, c.config.Selectors.EmbeddedData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product %s: %w", productURL, err)
	}

	log.WithFields(log.Fields{
		"item_id": product.ItemID,
		"price":   product.Price,
		"size":    product.Size,
	}).Debugf("Parsed product %s", product.Name)
	return product, nil
}
