package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// CommentRepository defines the interface for product comment data access.
// Read methods return comments with their vote tallies filled in.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, id uuid.UUID, text string, score float64, updatedAt time.Time) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error)
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentWithTallyQuery = `
	SELECT c.id, c.product_id, c.user_name, c.comment, c.sentiment_score, c.created_at, c.updated_at,
	       COUNT(v.comment_id) FILTER (WHERE v.value = 1),
	       COUNT(v.comment_id) FILTER (WHERE v.value = -1)
	FROM product_comments c
	LEFT JOIN comment_votes v ON v.comment_id = c.id
`

func scanComment(row rowScanner) (*domain.Comment, error) {
	comment := &domain.Comment{}
	var score sql.NullFloat64
	err := row.Scan(
		&comment.ID,
		&comment.ProductID,
		&comment.UserName,
		&comment.Comment,
		&score,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&comment.Votes.Up,
		&comment.Votes.Down,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		comment.SentimentScore = &score.Float64
	}
	return comment, nil
}

// Create inserts a new comment
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO product_comments (id, product_id, user_name, comment, sentiment_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.ProductID,
		comment.UserName,
		comment.Comment,
		comment.SentimentScore,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// Update replaces the text and score of a comment
func (r *commentRepository) Update(ctx context.Context, id uuid.UUID, text string, score float64, updatedAt time.Time) (*domain.Comment, error) {
	query := `UPDATE product_comments SET comment = $2, sentiment_score = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, text, score, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrCommentNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes a comment; its votes cascade
func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// FindByID retrieves a comment by ID
func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := commentWithTallyQuery + `WHERE c.id = $1 GROUP BY c.id`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment by ID: %w", err)
	}

	return comment, nil
}

// ListByProduct retrieves a product's comments newest first
func (r *commentRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error) {
	query := commentWithTallyQuery + `WHERE c.product_id = $1 GROUP BY c.id ORDER BY c.created_at DESC, c.id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
