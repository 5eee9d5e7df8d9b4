package repository

import (
	"context"
	"database/sql"
	"fmt"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// RatingRepository defines the interface for product rating data access
type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) (*domain.Rating, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Rating, error)
}

type ratingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new instance of RatingRepository
func NewRatingRepository(db *sql.DB) RatingRepository {
	return &ratingRepository{db: db}
}

const ratingColumns = `id, product_id, user_name, rating, created_at, updated_at`

func scanRating(row rowScanner) (*domain.Rating, error) {
	rating := &domain.Rating{}
	err := row.Scan(&rating.ID, &rating.ProductID, &rating.UserName, &rating.Rating, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// Upsert stores the rating keyed by (product, user name). A second rating
// from the same user overwrites the first in place and keeps its id.
func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	query := `
		INSERT INTO product_ratings (id, product_id, user_name, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, user_name)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at
		RETURNING ` + ratingColumns

	stored, err := scanRating(r.db.QueryRowContext(
		ctx,
		query,
		rating.ID,
		rating.ProductID,
		rating.UserName,
		rating.Rating,
		rating.CreatedAt,
		rating.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	return stored, nil
}

// ListByProduct retrieves a product's ratings, most recently changed first
func (r *ratingRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM product_ratings WHERE product_id = $1 ORDER BY updated_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []*domain.Rating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}
