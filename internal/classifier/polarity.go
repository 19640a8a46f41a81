package classifier

import (
	"context"

	"newspulse/internal/model"
)

// valenceScale converts lexicon valences (roughly [-4,4]) into the
// [-1,1] polarity range.
const valenceScale = 4.0

// Polarity is a pattern-style classifier: it averages the polarity of
// sentiment-bearing words and spreads the result over the class
// triple. Deliberately simpler than Lexicon, it contributes an
// independent second opinion to the ensemble.
type Polarity struct{}

// NewPolarity creates a Polarity adapter.
func NewPolarity() *Polarity {
	return &Polarity{}
}

func (p *Polarity) Name() string { return "polarity" }

// Classify maps mean polarity onto scores: pos = max(0, polarity),
// neg = max(0, -polarity), neu = 1 - pos - neg.
func (p *Polarity) Classify(_ context.Context, text string) (model.ModelVerdict, error) {
	if tooShort(text) {
		return shortTextVerdict(p.Name()), nil
	}

	tokens := tokenize(Preprocess(text))

	var sum float64
	var count int
	for i, tok := range tokens {
		v, ok := valences[tok]
		if !ok {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if negators[tokens[j]] {
				v = -v
				break
			}
		}
		sum += v / valenceScale
		count++
	}

	var polarity float64
	if count > 0 {
		polarity = sum / float64(count)
	}
	if polarity > 1 {
		polarity = 1
	} else if polarity < -1 {
		polarity = -1
	}

	pos := 0.0
	neg := 0.0
	if polarity > 0 {
		pos = polarity
	} else {
		neg = -polarity
	}

	return model.ModelVerdict{
		Model: p.Name(),
		Scores: model.Scores{
			Positive: pos,
			Negative: neg,
			Neutral:  1 - pos - neg,
		},
	}, nil
}
