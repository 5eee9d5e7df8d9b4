package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petshop/internal/domain"
	"petshop/internal/repository"
	"petshop/internal/review"
	"petshop/internal/sentiment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxUserNameLength = 100

	defaultDashboardConcurrency = 8
)

// DashboardEntry is one product line of the admin dashboard
type DashboardEntry struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category"`
	Summary   review.Summary  `json:"summary"`
}

// ReviewService defines the interface for ratings, comments, votes and the
// reputation derived from them
type ReviewService interface {
	Rate(ctx context.Context, productID uuid.UUID, userName string, rating int) (*domain.Rating, error)
	Ratings(ctx context.Context, productID uuid.UUID) ([]*domain.Rating, error)
	RatingStats(ctx context.Context, productID uuid.UUID) (review.RatingStats, error)

	AddComment(ctx context.Context, productID uuid.UUID, userName, text string) (*domain.Comment, error)
	EditComment(ctx context.Context, id uuid.UUID, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	Comments(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error)

	Vote(ctx context.Context, commentID uuid.UUID, voter string, direction domain.VoteDirection) (domain.VoteTally, error)
	Tally(ctx context.Context, commentID uuid.UUID) (domain.VoteTally, error)

	Summary(ctx context.Context, productID uuid.UUID) (review.Summary, error)
	Dashboard(ctx context.Context) ([]DashboardEntry, error)
}

type reviewService struct {
	products    repository.ProductRepository
	ratings     repository.RatingRepository
	comments    repository.CommentRepository
	votes       repository.VoteRepository
	scorer      *sentiment.Scorer
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// NewReviewService creates a new instance of ReviewService. concurrency
// bounds the dashboard fan-out.
func NewReviewService(
	products repository.ProductRepository,
	ratings repository.RatingRepository,
	comments repository.CommentRepository,
	votes repository.VoteRepository,
	scorer *sentiment.Scorer,
	logger *zap.Logger,
	concurrency int,
) ReviewService {
	if concurrency < 1 {
		concurrency = defaultDashboardConcurrency
	}
	return &reviewService{
		products:    products,
		ratings:     ratings,
		comments:    comments,
		votes:       votes,
		scorer:      scorer,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Rate records a 1-5 star rating. Rating again replaces the earlier value.
func (s *reviewService) Rate(ctx context.Context, productID uuid.UUID, userName string, rating int) (*domain.Rating, error) {
	userName, err := validateUserName(userName)
	if err != nil {
		return nil, err
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, invalidInput("rating", fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	now := s.now()
	return s.ratings.Upsert(ctx, &domain.Rating{
		ID:        uuid.New(),
		ProductID: productID,
		UserName:  userName,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *reviewService) Ratings(ctx context.Context, productID uuid.UUID) ([]*domain.Rating, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.ratings.ListByProduct(ctx, productID)
}

func (s *reviewService) RatingStats(ctx context.Context, productID uuid.UUID) (review.RatingStats, error) {
	ratings, err := s.Ratings(ctx, productID)
	if err != nil {
		return review.RatingStats{}, err
	}
	return review.Ratings(ratingValues(ratings)), nil
}

// AddComment stores a comment with a sentiment score computed from its text
func (s *reviewService) AddComment(ctx context.Context, productID uuid.UUID, userName, text string) (*domain.Comment, error) {
	userName, err := validateUserName(userName)
	if err != nil {
		return nil, err
	}
	text, err = validateComment(text)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	score := s.scorer.Score(ctx, text)
	stored := sentiment.Storable(score)

	now := s.now()
	comment := &domain.Comment{
		ID:             uuid.New(),
		ProductID:      productID,
		UserName:       userName,
		Comment:        text,
		SentimentScore: &stored,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	comment.SentimentScore = &score
	return comment, nil
}

// EditComment replaces the text and scores it again
func (s *reviewService) EditComment(ctx context.Context, id uuid.UUID, text string) (*domain.Comment, error) {
	text, err := validateComment(text)
	if err != nil {
		return nil, err
	}

	score := s.scorer.Score(ctx, text)
	comment, err := s.comments.Update(ctx, id, text, sentiment.Storable(score), s.now())
	if err != nil {
		return nil, err
	}

	return displayComment(comment), nil
}

// DeleteComment removes a comment and its votes
func (s *reviewService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return s.comments.Delete(ctx, id)
}

// Comments lists a product's comments newest first with their vote tallies
func (s *reviewService) Comments(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	for i, c := range comments {
		comments[i] = displayComment(c)
	}
	return comments, nil
}

// Vote applies up, down or clear for the voter and returns the new tally.
// Repeating a vote changes nothing; clearing a vote that was never cast is fine.
func (s *reviewService) Vote(ctx context.Context, commentID uuid.UUID, voter string, direction domain.VoteDirection) (domain.VoteTally, error) {
	voter, err := validateUserName(voter)
	if err != nil {
		return domain.VoteTally{}, err
	}

	var value domain.VoteValue
	switch domain.VoteDirection(strings.ToLower(string(direction))) {
	case domain.DirectionUp:
		value = domain.VoteUp
	case domain.DirectionDown:
		value = domain.VoteDown
	case domain.DirectionClear:
	default:
		return domain.VoteTally{}, invalidInput("direction", "must be one of up, down, clear")
	}

	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return domain.VoteTally{}, err
	}

	if value == 0 {
		err = s.votes.Delete(ctx, commentID, voter)
	} else {
		err = s.votes.Upsert(ctx, &domain.CommentVote{CommentID: commentID, UserName: voter, Value: value})
	}
	if err != nil {
		return domain.VoteTally{}, err
	}

	return s.votes.Tally(ctx, commentID)
}

func (s *reviewService) Tally(ctx context.Context, commentID uuid.UUID) (domain.VoteTally, error) {
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return domain.VoteTally{}, err
	}
	return s.votes.Tally(ctx, commentID)
}

// Summary derives the review summary and badge of a product as of now
func (s *reviewService) Summary(ctx context.Context, productID uuid.UUID) (review.Summary, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return review.Summary{}, err
	}
	return s.summarize(ctx, product)
}

// Dashboard summarizes every product. Summaries load concurrently with at
// most the configured number in flight; the first failure cancels the rest.
func (s *reviewService) Dashboard(ctx context.Context) ([]DashboardEntry, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]DashboardEntry, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, product := range products {
		g.Go(func() error {
			summary, err := s.summarize(gctx, product)
			if err != nil {
				return fmt.Errorf("failed to summarize product %s: %w", product.ID, err)
			}
			entries[i] = DashboardEntry{
				ProductID: product.ID,
				Title:     product.Name,
				Price:     product.Price,
				Stock:     product.Stock,
				Category:  product.Category,
				Summary:   summary,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build dashboard", zap.Error(err))
		return nil, err
	}

	return entries, nil
}

func (s *reviewService) summarize(ctx context.Context, product *domain.Product) (review.Summary, error) {
	ratings, err := s.ratings.ListByProduct(ctx, product.ID)
	if err != nil {
		return review.Summary{}, err
	}
	comments, err := s.comments.ListByProduct(ctx, product.ID)
	if err != nil {
		return review.Summary{}, err
	}

	scores := make([]*float64, len(comments))
	for i, c := range comments {
		scores[i] = c.SentimentScore
	}

	return review.Summarize(review.Input{
		Ratings:         ratingValues(ratings),
		SentimentScores: scores,
		Category:        product.Category,
		CreatedAt:       product.CreatedAt,
	}, s.now()), nil
}

// displayComment reports the score on the review scale rather than as stored
func displayComment(c *domain.Comment) *domain.Comment {
	if c.SentimentScore != nil {
		score := sentiment.Normalize(*c.SentimentScore)
		c.SentimentScore = &score
	}
	return c
}

func ratingValues(ratings []*domain.Rating) []int {
	values := make([]int, len(ratings))
	for i, r := range ratings {
		values[i] = r.Rating
	}
	return values
}

func validateUserName(userName string) (string, error) {
	userName = strings.TrimSpace(userName)
	if err := validateText("user_name", userName, MaxUserNameLength); err != nil {
		return "", err
	}
	return userName, nil
}

func validateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validateText("comment", text, domain.MaxCommentLength); err != nil {
		return "", err
	}
	return text, nil
}
