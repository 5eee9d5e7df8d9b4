// Package sentiment turns free text into a score on the fixed 1.0-10.0
// review scale. The polarity model is pluggable through Oracle.
package sentiment

import (
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 1.0
	MaxScore = 10.0

	// Neutral is where polarity 0 lands. It is not the midpoint of the scale.
	Neutral = 5.5

	polaritySpan = 4.5
)

// Normalize maps a raw value onto the review scale. Values in [-1, 1] are
// polarities, exactly 0 is the neutral sentinel, anything else is already a
// score and is clamped.
func Normalize(v float64) float64 {
	if v == 0 {
		return Neutral
	}
	if v >= -1 && v <= 1 {
		return clamp(Neutral+polaritySpan*clamp(v, -1, 1), MinScore, MaxScore)
	}
	return clamp(v, MinScore, MaxScore)
}

// ParsePolarity reads a raw numeric value without normalizing it
func ParsePolarity(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseScore parses and normalizes a raw value. ok is false when the input
// is not numeric; such values carry no score at all.
func ParseScore(raw string) (score float64, ok bool) {
	v, ok := ParsePolarity(raw)
	if !ok {
		return 0, false
	}
	return Normalize(v), true
}

// Storable converts a normalized score into the value persisted for it.
// Stored values are normalized again on read, and 1.0 is the one value that
// sits on both scales, so the floor is written as its polarity.
func Storable(score float64) float64 {
	if score <= MinScore {
		return -1
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
