package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"grocery/scraper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type ProductRepository interface {
	SaveProducts(ctx context.Context, products []*domain.ProductRecord) (int, error)
	ExistsByURL(ctx context.Context, table Table, url string) (bool, error)
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{
		db: db,
	}
}

// SaveProducts inserts products in one transaction. The unique url column is
// the dedup mechanism: rows whose url is already stored are skipped and not
// counted.
func (r *productRepository) SaveProducts(ctx context.Context, products []*domain.ProductRecord) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	query := `
	INSERT INTO products (
		item_id, upc, product_id, url, name, categories, image, store_id,
		store_location, price, mrp, discount, availability, keyword, size
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (url) DO NOTHING`

	inserted := 0
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range products {
			categories := p.Categories
			if categories == nil {
				categories = []string{}
			}
			categoriesJSON, err := json.Marshal(categories)
			if err != nil {
				return fmt.Errorf("failed to encode categories for %s: %w", p.URL, err)
			}

			batch.Queue(query,
				p.ItemID, p.UPC, p.ProductID, p.URL, p.Name, string(categoriesJSON), p.Image, p.StoreID,
				p.StoreLocation, p.Price, p.MRP, nullIfEmpty(p.Discount), p.Availability, p.Keyword, p.Size,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for range products {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to save products: %w", domain.ErrPersistence, err)
	}

	log.Debugf("💾 Inserted %d of %d products", inserted, len(products))
	return inserted, nil
}

func (r *productRepository) ExistsByURL(ctx context.Context, table Table, url string) (bool, error) {
	return existsByURL(ctx, r.db, table, url)
}
