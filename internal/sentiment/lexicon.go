package sentiment

import (
	"context"
	"strings"
	"unicode"
)

var lexiconWords = map[string]float64{
	"amazing":   0.9,
	"awesome":   0.9,
	"excellent": 1.0,
	"perfect":   1.0,
	"best":      1.0,
	"fantastic": 0.9,
	"wonderful": 0.9,
	"love":      0.8,
	"loves":     0.8,
	"loved":     0.8,
	"great":     0.8,
	"happy":     0.8,
	"recommend": 0.6,
	"good":      0.7,
	"nice":      0.6,
	"cute":      0.5,

	"like":    0.4,
	"likes":   0.4,
	"fine":    0.4,
	"special": 0.4,
	"sturdy":  0.4,
	"soft":    0.3,
	"okay":    0.2,
	"ok":      0.2,
	"average": -0.1,
	"cheap":   -0.2,
	"small":   -0.1,
	"meh":     -0.3,

	"disappointed": -0.6,
	"flimsy":       -0.5,
	"poor":         -0.6,
	"bad":          -0.7,
	"broken":       -0.7,
	"sick":         -0.7,
	"useless":      -0.8,
	"hate":         -0.8,
	"hates":        -0.8,
	"awful":        -1.0,
	"terrible":     -1.0,
	"horrible":     -1.0,
	"worst":        -1.0,
	"dangerous":    -0.9,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true,
	"dont": true, "doesnt": true, "didnt": true, "isnt": true,
	"wasnt": true, "cant": true, "wont": true, "hardly": true,
}

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.3,
	"extremely":  1.5,
	"super":      1.4,
	"absolutely": 1.5,
}

// Lexicon is an in-process word-list oracle. Polarity is the mean of the
// sentiment-bearing words; a preceding negator flips and halves a word, a
// preceding intensifier boosts it.
type Lexicon struct{}

func NewLexicon() Lexicon {
	return Lexicon{}
}

func (Lexicon) Score(_ context.Context, text string) (float64, error) {
	tokens := tokenize(text)

	var sum float64
	var count int
	for i, tok := range tokens {
		value, ok := lexiconWords[tok]
		if !ok {
			continue
		}

		if i > 0 {
			if boost, ok := intensifiers[tokens[i-1]]; ok {
				value *= boost
			}
		}
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if negators[tokens[j]] {
				value *= -0.5
				break
			}
		}

		sum += clamp(value, -1, 1)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	return clamp(sum/float64(count), -1, 1), nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.ReplaceAll(f, "'", ""); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
