package repository

import (
	"context"
	_ "embed"
	"fmt"

	"grocery/scraper/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Table names a table that can be probed by URL.
type Table string

const (
	TableProducts      Table = "products"
	TableSubcategories Table = "subcategories"
)

func (t Table) urlColumn() (string, error) {
	switch t {
	case TableProducts:
		return "url", nil
	case TableSubcategories:
		return "subcategory_url", nil
	default:
		return "", fmt.Errorf("unknown table %q", string(t))
	}
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: failed to create schema: %w", domain.ErrPersistence, err)
	}
	return nil
}

func existsByURL(ctx context.Context, db *pgxpool.Pool, table Table, url string) (bool, error) {
	column, err := table.urlColumn()
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table, column)

	var exists bool
	if err := db.QueryRow(ctx, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: failed to look up %s in %s: %w", domain.ErrPersistence, url, table, err)
	}
	return exists, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
