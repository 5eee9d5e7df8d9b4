package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"petshop/internal/domain"

	"github.com/google/uuid"
)

// VoteRepository defines the interface for comment vote data access
type VoteRepository interface {
	Upsert(ctx context.Context, vote *domain.CommentVote) error
	Delete(ctx context.Context, commentID uuid.UUID, userName string) error
	Tally(ctx context.Context, commentID uuid.UUID) (domain.VoteTally, error)
}

type voteRepository struct {
	db *sql.DB
}

// NewVoteRepository creates a new instance of VoteRepository
func NewVoteRepository(db *sql.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Upsert records the voter's value, replacing any earlier vote. Repeating
// the same value leaves the row as it was.
func (r *voteRepository) Upsert(ctx context.Context, vote *domain.CommentVote) error {
	query := `
		INSERT INTO comment_votes (comment_id, user_name, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (comment_id, user_name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		WHERE comment_votes.value <> EXCLUDED.value
	`

	_, err := r.db.ExecContext(ctx, query, vote.CommentID, vote.UserName, int(vote.Value), time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to upsert vote: %w", err)
	}

	return nil
}

// Delete clears the voter's vote. Clearing a vote that does not exist is not an error.
func (r *voteRepository) Delete(ctx context.Context, commentID uuid.UUID, userName string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comment_votes WHERE comment_id = $1 AND user_name = $2`, commentID, userName)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

// Tally counts the up and down votes of a comment
func (r *voteRepository) Tally(ctx context.Context, commentID uuid.UUID) (domain.VoteTally, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE value = 1), COUNT(*) FILTER (WHERE value = -1)
		FROM comment_votes
		WHERE comment_id = $1
	`

	var tally domain.VoteTally
	if err := r.db.QueryRowContext(ctx, query, commentID).Scan(&tally.Up, &tally.Down); err != nil {
		return domain.VoteTally{}, fmt.Errorf("failed to tally votes: %w", err)
	}

	return tally, nil
}
