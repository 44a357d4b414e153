package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"grocery/scraper/internal/domain"
	"grocery/scraper/internal/domain/task"
	"grocery/scraper/internal/repository"

	"github.com/redis/go-redis/v9"
)

type fakeRetailClient struct {
	categories    []domain.Category
	subcategories map[string][]domain.Subcategory // by category url
	listings      map[string][]domain.ProductStub // by listing url
	searchPages   map[int][]domain.ProductStub
	lastPage      int
	products      map[string]*domain.ProductRecord
	productErrs   map[string]error

	searchCalls  []int
	detailsCalls map[string]int
}

func newFakeRetailClient() *fakeRetailClient {
	return &fakeRetailClient{
		subcategories: map[string][]domain.Subcategory{},
		listings:      map[string][]domain.ProductStub{},
		searchPages:   map[int][]domain.ProductStub{},
		products:      map[string]*domain.ProductRecord{},
		productErrs:   map[string]error{},
		detailsCalls:  map[string]int{},
	}
}

func (c *fakeRetailClient) addProduct(url, name string) domain.ProductStub {
	c.products[url] = &domain.ProductRecord{
		ItemID: name,
		URL:    url,
		Name:   name,
		Price:  "$1.00",
		MRP:    "$1.00",
	}
	return domain.ProductStub{Name: name, URL: url}
}

func (c *fakeRetailClient) GetCategories(_ context.Context) ([]domain.Category, error) {
	return c.categories, nil
}

func (c *fakeRetailClient) GetSubcategories(_ context.Context, category domain.Category) ([]domain.Subcategory, error) {
	subcategories, ok := c.subcategories[category.URL]
	if !ok {
		return nil, fmt.Errorf("%w: category %s", domain.ErrNotFound, category.URL)
	}
	return subcategories, nil
}

func (c *fakeRetailClient) GetProductListing(_ context.Context, listingURL string) ([]domain.ProductStub, error) {
	stubs, ok := c.listings[listingURL]
	if !ok {
		return nil, fmt.Errorf("failed to fetch product listing %s: %w", listingURL, domain.ErrFetchTimeout)
	}
	return stubs, nil
}

func (c *fakeRetailClient) GetSearchLastPage(_ context.Context, _ string) (int, error) {
	return c.lastPage, nil
}

func (c *fakeRetailClient) GetSearchPage(_ context.Context, keyword string, pageNumber int) (*domain.SearchPage, error) {
	c.searchCalls = append(c.searchCalls, pageNumber)
	return &domain.SearchPage{Keyword: keyword, PageNumber: pageNumber, Products: c.searchPages[pageNumber]}, nil
}

func (c *fakeRetailClient) GetProductDetails(_ context.Context, productURL string) (*domain.ProductRecord, error) {
	c.detailsCalls[productURL]++
	if err, ok := c.productErrs[productURL]; ok {
		return nil, err
	}
	product, ok := c.products[productURL]
	if !ok {
		return nil, fmt.Errorf("%w: no product at %s", domain.ErrMalformedPage, productURL)
	}
	record := *product
	return &record, nil
}

type fakeCatalog struct {
	rows   []domain.Subcategory
	nextID int64
}

func (r *fakeCatalog) SaveSubcategories(_ context.Context, subcategories []domain.Subcategory) (int, error) {
	inserted := 0
	for _, s := range subcategories {
		if r.find(s.CategoryURL, s.SubcategoryURL) != nil {
			continue
		}
		r.nextID++
		s.ID = r.nextID
		r.rows = append(r.rows, s)
		inserted++
	}
	return inserted, nil
}

func (r *fakeCatalog) GetPendingSubcategories(_ context.Context) ([]domain.Subcategory, error) {
	var pending []domain.Subcategory
	for _, s := range r.rows {
		if !s.IsDone() {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

func (r *fakeCatalog) MarkSubcategoryDone(_ context.Context, id int64) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = domain.SubcategoryDone
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeCatalog) ExistsByURL(_ context.Context, _ repository.Table, url string) (bool, error) {
	for _, s := range r.rows {
		if s.SubcategoryURL == url {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCatalog) find(categoryURL, subcategoryURL string) *domain.Subcategory {
	for i := range r.rows {
		if r.rows[i].CategoryURL == categoryURL && r.rows[i].SubcategoryURL == subcategoryURL {
			return &r.rows[i]
		}
	}
	return nil
}

type fakeProducts struct {
	rows    map[string]*domain.ProductRecord
	saveErr error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{rows: map[string]*domain.ProductRecord{}}
}

func (r *fakeProducts) SaveProducts(_ context.Context, products []*domain.ProductRecord) (int, error) {
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	inserted := 0
	for _, p := range products {
		if _, ok := r.rows[p.URL]; ok {
			continue
		}
		r.rows[p.URL] = p
		inserted++
	}
	return inserted, nil
}

func (r *fakeProducts) ExistsByURL(_ context.Context, _ repository.Table, url string) (bool, error) {
	_, ok := r.rows[url]
	return ok, nil
}

type fakeQueue struct {
	messages []redis.XMessage
	next     int
	acked    []string
	seq      int
}

func (q *fakeQueue) AddTask(_ context.Context, t task.Task) (string, error) {
	values, err := task.StreamValues(t)
	if err != nil {
		return "", err
	}
	q.seq++
	id := strconv.Itoa(q.seq) + "-0"
	q.messages = append(q.messages, redis.XMessage{ID: id, Values: values})
	return id, nil
}

func (q *fakeQueue) GetTask(_ context.Context, _, _ string) (*redis.XMessage, error) {
	if q.next >= len(q.messages) {
		return nil, nil
	}
	msg := q.messages[q.next]
	q.next++
	return &msg, nil
}

func (q *fakeQueue) AckTask(_ context.Context, _, msgID string) error {
	q.acked = append(q.acked, msgID)
	return nil
}

func (q *fakeQueue) AutoClaim(_ context.Context, _, _ string, _ time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) EnsureStreamsExist(_ context.Context) error {
	return nil
}

func (q *fakeQueue) retryTasks() []*task.ProductRetryTask {
	var tasks []*task.ProductRetryTask
	for _, msg := range q.messages {
		t, err := task.Decode[*task.ProductRetryTask](msg.Values)
		if err == nil {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

type fakeState struct {
	pages map[string]int
}

func newFakeState() *fakeState {
	return &fakeState{pages: map[string]int{}}
}

func (s *fakeState) GetLastProcessedPage(_ context.Context, keyword string) (int, error) {
	return s.pages[keyword], nil
}

func (s *fakeState) SetLastProcessedPage(_ context.Context, keyword string, pageNumber int) error {
	s.pages[keyword] = pageNumber
	return nil
}

func (s *fakeState) ResetProgress(_ context.Context, keyword string) error {
	delete(s.pages, keyword)
	return nil
}

func redisMessage(id string, values map[string]interface{}) redis.XMessage {
	return redis.XMessage{ID: id, Values: values}
}
