// Package review derives per-product reputation from ratings and comment
// sentiment. Everything here is computed on read from the child records.
package review

import (
	"math"
	"time"

	"petshop/internal/domain"
	"petshop/internal/sentiment"
)

const (
	BadgeMostFavourite = "Most Favourite"
	BadgePopular       = "Popular"
	BadgeTryMe         = "Try Me"
	BadgeRecentlyAdded = "Not rated / Recently added"
	BadgePetFavorite   = "Pet Favorite"

	popularAmongPrefix = "Popular among "

	mostFavouriteCutoff = 8.0
	popularCutoff       = 6.5
	tryMeCutoff         = 4.5
)

// RecentWindow is how long an unrated product counts as recently added
const RecentWindow = 14 * 24 * time.Hour

// Input is the raw material of a summary. SentimentScores holds the stored
// values as read; nil entries could not be read and are skipped.
type Input struct {
	Ratings         []int
	SentimentScores []*float64
	Category        string
	CreatedAt       time.Time
}

// Summary is the derived review state of one product
type Summary struct {
	AverageRating      float64     `json:"average_rating"`
	RatingCount        int         `json:"rating_count"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	AverageSentiment   float64     `json:"average_sentiment"`
	CommentCount       int         `json:"comment_count"`
	BadgeLabel         string      `json:"badge_label"`
}

// RatingStats is the rating-only part of a summary
type RatingStats struct {
	AverageRating      float64     `json:"average_rating"`
	RatingCount        int         `json:"rating_count"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

// Summarize computes the summary as of now
func Summarize(in Input, now time.Time) Summary {
	stats := Ratings(in.Ratings)
	avgSentiment := AverageSentiment(in.SentimentScores)

	return Summary{
		AverageRating:      stats.AverageRating,
		RatingCount:        stats.RatingCount,
		RatingDistribution: stats.RatingDistribution,
		AverageSentiment:   avgSentiment,
		CommentCount:       len(in.SentimentScores),
		BadgeLabel:         Badge(avgSentiment, stats.RatingCount, in.Category, in.CreatedAt, now),
	}
}

// Ratings computes the mean and star distribution. The distribution always
// carries all five star values. Out-of-range values are not counted.
func Ratings(values []int) RatingStats {
	dist := make(map[int]int, domain.MaxRating)
	for star := domain.MinRating; star <= domain.MaxRating; star++ {
		dist[star] = 0
	}

	var sum, count int
	for _, v := range values {
		if v < domain.MinRating || v > domain.MaxRating {
			continue
		}
		dist[v]++
		sum += v
		count++
	}

	stats := RatingStats{RatingCount: count, RatingDistribution: dist}
	if count > 0 {
		stats.AverageRating = round(float64(sum)/float64(count), 2)
	}
	return stats
}

// AverageSentiment normalizes each readable score and averages them.
// No readable scores is neutral, not zero.
func AverageSentiment(scores []*float64) float64 {
	var sum float64
	var count int
	for _, s := range scores {
		if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) {
			continue
		}
		sum += sentiment.Normalize(*s)
		count++
	}

	if count == 0 {
		return sentiment.Neutral
	}
	return round(sum/float64(count), 3)
}

// Badge applies the reputation ladder; the first matching rung wins
func Badge(avgSentiment float64, ratingCount int, category string, createdAt, now time.Time) string {
	switch {
	case avgSentiment >= mostFavouriteCutoff:
		return BadgeMostFavourite
	case avgSentiment >= popularCutoff:
		if category != "" {
			return popularAmongPrefix + category
		}
		return BadgePopular
	case avgSentiment >= tryMeCutoff:
		return BadgeTryMe
	case ratingCount == 0 && !createdAt.IsZero() && now.Sub(createdAt) <= RecentWindow:
		return BadgeRecentlyAdded
	default:
		return BadgePetFavorite
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
