package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryRepository reads the category labels in use. Categories are free
// text on products rather than rows of their own.
type CategoryRepository interface {
	List(ctx context.Context) ([]string, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List retrieves the distinct non-empty categories sorted by name
func (r *categoryRepository) List(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category COLLATE "C" AS category
		FROM products
		WHERE category <> ''
		ORDER BY 1 ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
