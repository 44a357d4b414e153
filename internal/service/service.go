package service

import (
	"context"
	"errors"
	"time"

	"grocery/scraper/internal/client"
	"grocery/scraper/internal/domain"
	"grocery/scraper/internal/domain/task"
	"grocery/scraper/internal/queue"
	"grocery/scraper/internal/repository"
	"grocery/scraper/internal/state"

	log "github.com/sirupsen/logrus"
)

// ErrQueueDisabled is returned by RetryFailed when no retry queue is wired.
var ErrQueueDisabled = errors.New("retry queue is disabled, set redis.enabled")

type Service struct {
	catalog      repository.CatalogRepository
	products     repository.ProductRepository
	client       client.RetailClient
	queue        queue.Queue        // nil when Redis is disabled
	stateManager state.StateManager // nil when Redis is disabled
	maxRetries   int
	minIdleTime  time.Duration
}

func NewService(
	catalog repository.CatalogRepository,
	products repository.ProductRepository,
	client client.RetailClient,
	queue queue.Queue,
	stateManager state.StateManager,
	maxRetries int,
	minIdleTime int,
) *Service {
	return &Service{
		catalog:      catalog,
		products:     products,
		client:       client,
		queue:        queue,
		stateManager: stateManager,
		maxRetries:   maxRetries,
		minIdleTime:  time.Duration(minIdleTime) * time.Second,
	}
}

// origin tells a product where it was found.
type origin struct {
	subcategoryID int64
	keyword       string
}

// tally counts what happened to the products of one listing.
type tally struct {
	inserted int
	skipped  int
	failed   int
}

func (t *tally) add(o tally) {
	t.inserted += o.inserted
	t.skipped += o.skipped
	t.failed += o.failed
}

// CrawlCategories stores the subcategories of every grocery category. A
// category that is itself a product listing is stored as its own subcategory.
func (s *Service) CrawlCategories(ctx context.Context) error {
	categories, err := s.client.GetCategories(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, category := range categories {
		log.Infof("🔄 Processing category: %s", category.Name)

		subcategories, err := s.client.GetSubcategories(ctx, category)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Warnf("⚠️ Skipping category %s: %v", category.Name, err)
				continue
			}
			return err
		}

		inserted, err := s.catalog.SaveSubcategories(ctx, subcategories)
		if err != nil {
			return err
		}
		total += inserted
	}

	log.Infof("✅ Category crawl finished: %d categories, %d new subcategories", len(categories), total)
	return nil
}

// CrawlProducts walks every pending subcategory's listing and stores the
// products not stored yet. A subcategory is marked done once all of its
// products went through without a failure.
func (s *Service) CrawlProducts(ctx context.Context) error {
	pending, err := s.catalog.GetPendingSubcategories(ctx)
	if err != nil {
		return err
	}

	log.Infof("🔄 %d subcategories pending", len(pending))

	var total tally
	for _, subcategory := range pending {
		log.Infof("🔄 Processing subcategory: %s / %s", subcategory.CategoryName, subcategory.SubcategoryName)

		stubs, err := s.client.GetProductListing(ctx, subcategory.SubcategoryURL)
		if err != nil {
			return err
		}

		result, err := s.processProducts(ctx, stubs, origin{subcategoryID: subcategory.ID})
		if err != nil {
			return err
		}
		total.add(result)

		if result.failed > 0 {
			log.Warnf("⚠️ %s keeps pending: %d products failed", subcategory.SubcategoryName, result.failed)
			continue
		}

		if err := s.catalog.MarkSubcategoryDone(ctx, subcategory.ID); err != nil {
			return err
		}
	}

	log.Infof("✅ Product crawl finished: %d inserted, %d already stored, %d failed",
		total.inserted, total.skipped, total.failed)
	return nil
}

// CrawlSearch stores the products of every results page for keyword, pages
// 1 through the last one. With Redis enabled an interrupted run resumes after
// the last completed page.
func (s *Service) CrawlSearch(ctx context.Context, keyword string) error {
	lastPage, err := s.client.GetSearchLastPage(ctx, keyword)
	if err != nil {
		return err
	}

	startPage := 1
	if s.stateManager != nil {
		done, err := s.stateManager.GetLastProcessedPage(ctx, keyword)
		if err != nil {
			return err
		}
		if done > 0 && done < lastPage {
			startPage = done + 1
			log.Infof("🔄 Continue from page %d for %q", startPage, keyword)
		}
	}

	var total tally
	for pageNumber := startPage; pageNumber <= lastPage; pageNumber++ {
		log.Infof("🔄 Processing page %d/%d for %q", pageNumber, lastPage, keyword)

		page, err := s.client.GetSearchPage(ctx, keyword, pageNumber)
		if err != nil {
			return err
		}

		result, err := s.processProducts(ctx, page.Products, origin{keyword: keyword})
		if err != nil {
			return err
		}
		total.add(result)

		if s.stateManager != nil {
			if err := s.stateManager.SetLastProcessedPage(ctx, keyword, pageNumber); err != nil {
				log.Warnf("⚠️ Failed to save search progress: %v", err)
			}
		}
	}

	if s.stateManager != nil {
		if err := s.stateManager.ResetProgress(ctx, keyword); err != nil {
			log.Warnf("⚠️ Failed to reset search progress: %v", err)
		}
	}

	log.Infof("✅ Search for %q finished: %d inserted, %d already stored, %d failed",
		keyword, total.inserted, total.skipped, total.failed)
	return nil
}

// processProducts fetches and stores each product in turn, once per URL. A
// product that cannot be fetched or parsed is logged, handed to the retry
// queue and skipped. Storage failures abort.
func (s *Service) processProducts(ctx context.Context, stubs []domain.ProductStub, from origin) (tally, error) {
	var result tally

	seen := make(map[string]struct{}, len(stubs))
	for _, stub := range stubs {
		if _, dup := seen[stub.URL]; dup {
			continue
		}
		seen[stub.URL] = struct{}{}

		inserted, err := s.processProduct(ctx, stub.URL, from.keyword)
		switch {
		case err == nil && inserted:
			result.inserted++
		case err == nil:
			result.skipped++
		case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrBlocked):
			return result, err
		case ctx.Err() != nil:
			return result, ctx.Err()
		default:
			result.failed++
			log.WithFields(log.Fields{
				"url":  stub.URL,
				"name": stub.Name,
			}).Errorf("❌ Failed to process product: %v", err)
			s.enqueueRetry(ctx, &task.ProductRetryTask{
				ProductURL:    stub.URL,
				SubcategoryID: from.subcategoryID,
				Keyword:       from.keyword,
				Error:         err.Error(),
			})
		}
	}

	return result, nil
}

// processProduct reports whether a new row was stored. Products already in
// storage are not fetched again.
func (s *Service) processProduct(ctx context.Context, productURL, keyword string) (bool, error) {
	exists, err := s.products.ExistsByURL(ctx, repository.TableProducts, productURL)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debugf("Product %s already stored, skipping", productURL)
		return false, nil
	}

	product, err := s.client.GetProductDetails(ctx, productURL)
	if err != nil {
		return false, err
	}
	product.Keyword = keyword

	inserted, err := s.products.SaveProducts(ctx, []*domain.ProductRecord{product})
	if err != nil {
		return false, err
	}

	if inserted > 0 {
		log.WithFields(log.Fields{
			"url":   productURL,
			"price": product.Price,
		}).Infof("✅ Saved %s", product.Name)
	}
	return inserted > 0, nil
}

func (s *Service) enqueueRetry(ctx context.Context, retryTask *task.ProductRetryTask) {
	if s.queue == nil {
		return
	}

	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		log.Errorf("❌ Failed to add retry task for %s: %v", retryTask.ProductURL, err)
		return
	}
	log.Warnf("🔄 Added %s to retry queue (attempt %d)", retryTask.ProductURL, retryTask.RetryCount)
}
