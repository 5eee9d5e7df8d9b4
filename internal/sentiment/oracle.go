package sentiment

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Oracle returns the polarity of a text in [-1.0, 1.0]
type Oracle interface {
	Score(ctx context.Context, text string) (float64, error)
}

// OracleFunc adapts a plain function to Oracle
type OracleFunc func(ctx context.Context, text string) (float64, error)

func (f OracleFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Scorer produces review-scale scores for new and edited comments
type Scorer struct {
	oracle Oracle
	logger *zap.Logger
}

// NewScorer wraps an oracle. A nil logger disables fallback logging.
func NewScorer(oracle Oracle, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{oracle: oracle, logger: logger}
}

// Score never fails: blank text is neutral without consulting the oracle, and
// an unavailable oracle degrades to polarity 0.
func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return Neutral
	}

	polarity, err := s.oracle.Score(ctx, text)
	if err != nil {
		s.logger.Warn("Sentiment oracle unavailable, using neutral polarity", zap.Error(err))
		polarity = 0
	}

	return Normalize(polarity)
}
