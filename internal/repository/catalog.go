package repository

import (
	"context"
	"fmt"

	"grocery/scraper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type CatalogRepository interface {
	SaveSubcategories(ctx context.Context, subcategories []domain.Subcategory) (int, error)
	GetPendingSubcategories(ctx context.Context) ([]domain.Subcategory, error)
	MarkSubcategoryDone(ctx context.Context, id int64) error
	ExistsByURL(ctx context.Context, table Table, url string) (bool, error)
}

type catalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

// SaveSubcategories inserts all rows in one transaction and returns how many
// were new. Already stored (category, subcategory) pairs are left alone.
func (r *catalogRepository) SaveSubcategories(ctx context.Context, subcategories []domain.Subcategory) (int, error) {
	if len(subcategories) == 0 {
		return 0, nil
	}

	query := `
	INSERT INTO subcategories (category_name, category_url, subcategory_name, subcategory_url)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (category_url, subcategory_url) DO NOTHING`

	inserted := 0
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range subcategories {
			batch.Queue(query, s.CategoryName, s.CategoryURL, s.SubcategoryName, s.SubcategoryURL)
		}

		results := tx.SendBatch(ctx, batch)
		for range subcategories {
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
		return 0, fmt.Errorf("%w: failed to save subcategories: %w", domain.ErrPersistence, err)
	}

	log.Infof("💾 Inserted %d of %d subcategories", inserted, len(subcategories))
	return inserted, nil
}

func (r *catalogRepository) GetPendingSubcategories(ctx context.Context) ([]domain.Subcategory, error) {
	query := `
	SELECT id, category_name, category_url, subcategory_name, subcategory_url, COALESCE(status, '')
	FROM subcategories
	WHERE status IS NULL OR status <> $1
	ORDER BY id`

	rows, err := r.db.Query(ctx, query, string(domain.SubcategoryDone))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query pending subcategories: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var subcategories []domain.Subcategory
	for rows.Next() {
		var s domain.Subcategory
		var status string
		if err := rows.Scan(&s.ID, &s.CategoryName, &s.CategoryURL, &s.SubcategoryName, &s.SubcategoryURL, &status); err != nil {
			return nil, fmt.Errorf("%w: failed to scan subcategory: %w", domain.ErrPersistence, err)
		}
		s.Status = domain.SubcategoryStatus(status)
		subcategories = append(subcategories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read pending subcategories: %w", domain.ErrPersistence, err)
	}

	return subcategories, nil
}

func (r *catalogRepository) MarkSubcategoryDone(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE subcategories SET status = $1 WHERE id = $2`, string(domain.SubcategoryDone), id)
	if err != nil {
		return fmt.Errorf("%w: failed to mark subcategory %d done: %w", domain.ErrPersistence, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: subcategory %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *catalogRepository) ExistsByURL(ctx context.Context, table Table, url string) (bool, error) {
	return existsByURL(ctx, r.db, table, url)
}
