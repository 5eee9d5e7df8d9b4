package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5

	// MaxCommentLength is measured in characters, not bytes
	MaxCommentLength = 1000
)

// Rating is unique per (product, user name)
type Rating struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment carries a server-computed sentiment score. A nil score means the
// stored value could not be read and is excluded from averages.
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ProductID      uuid.UUID `json:"product_id" db:"product_id"`
	UserName       string    `json:"user_name" db:"user_name"`
	Comment        string    `json:"comment" db:"comment"`
	SentimentScore *float64  `json:"sentiment_score" db:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	Votes          VoteTally `json:"votes"`
}

// VoteValue is +1 for an up vote and -1 for a down vote
type VoteValue int

const (
	VoteUp   VoteValue = 1
	VoteDown VoteValue = -1
)

// VoteDirection is the caller-facing vote request
type VoteDirection string

const (
	DirectionUp    VoteDirection = "up"
	DirectionDown  VoteDirection = "down"
	DirectionClear VoteDirection = "clear"
)

// CommentVote is unique per (comment, voter)
type CommentVote struct {
	CommentID uuid.UUID `json:"comment_id" db:"comment_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Value     VoteValue `json:"value" db:"value"`
}

// VoteTally counts up and down votes across all voters of a comment
type VoteTally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}
