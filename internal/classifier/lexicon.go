package classifier

import (
	"context"
	"strings"

	"newspulse/internal/model"
)

// valences maps sentiment-bearing words to a valence in [-4, 4],
// following the usual social-media lexicon convention.
var valences = map[string]float64{
	"good": 1.9, "great": 3.1, "excellent": 3.2, "amazing": 2.8,
	"awesome": 3.1, "love": 3.2, "loved": 2.9, "best": 3.2,
	"happy": 2.7, "win": 2.8, "wins": 2.7, "winner": 2.8,
	"success": 2.7, "successful": 2.8, "strong": 2.3, "growth": 2.4,
	"gain": 2.4, "gains": 2.4, "rise": 1.9, "rises": 1.9,
	"record": 1.6, "profit": 2.6, "boost": 2.2, "recovery": 2.1,
	"improve": 2.1, "improved": 2.1, "positive": 2.3, "optimistic": 2.4,
	"support": 1.7, "safe": 1.9, "breakthrough": 2.9, "surge": 1.8,
	"hope": 1.9, "promising": 2.3, "benefit": 2.0, "agree": 1.5,
	"deal": 1.2, "stable": 1.4, "opportunity": 2.0, "progress": 2.1,

	"bad": -2.5, "terrible": -3.1, "awful": -3.0, "horrible": -3.1,
	"hate": -2.7, "worst": -3.1, "sad": -2.1, "fail": -2.5,
	"fails": -2.5, "failure": -2.7, "loss": -2.4, "losses": -2.4,
	"lose": -2.4, "crash": -2.8, "crisis": -2.9, "weak": -1.9,
	"drop": -1.7, "drops": -1.7, "fall": -1.7, "falls": -1.7,
	"decline": -2.0, "plunge": -2.5, "fear": -2.3, "fears": -2.3,
	"risk": -1.6, "risks": -1.6, "threat": -2.3, "war": -2.9,
	"death": -3.0, "dead": -2.9, "kill": -3.2, "killed": -3.1,
	"fraud": -3.0, "scandal": -2.7, "negative": -2.3, "concern": -1.6,
	"concerns": -1.6, "warning": -1.9, "collapse": -2.8, "cut": -1.3,
	"cuts": -1.3, "layoff": -2.5, "layoffs": -2.5, "debt": -1.8,
	"attack": -2.7, "disaster": -3.1, "problem": -1.7, "problems": -1.7,
	"struggle": -2.0, "struggling": -2.1, "slump": -2.2, "recession": -2.6,
}

// boosters amplify or dampen the following sentiment word.
var boosters = map[string]float64{
	"very": 0.293, "extremely": 0.293, "incredibly": 0.293,
	"really": 0.267, "hugely": 0.290, "slightly": -0.293,
	"somewhat": -0.267, "barely": -0.293, "marginally": -0.267,
}

// negators flip the valence of a nearby sentiment word.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nobody": true, "none": true, "cannot": true, "cant": true,
	"wont": true, "isnt": true, "wasnt": true, "didnt": true,
	"doesnt": true, "hardly": true, "without": true,
}

// negationDampener scales a flipped valence; a negated word carries
// less signal than its plain antonym.
const negationDampener = 0.74

// neutralTokenWeight is the mass a non-sentiment word adds to the
// neutral class before normalization.
const neutralTokenWeight = 0.25

// Lexicon is a rule-based classifier over a fixed valence word list,
// with negation handling and intensity boosters. It is the always-on
// baseline of the ensemble and needs no network access.
type Lexicon struct{}

// NewLexicon creates a Lexicon adapter.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

func (l *Lexicon) Name() string { return "lexicon" }

// Classify scores text by summing token valences into positive,
// negative and neutral mass, then normalizing into a distribution.
func (l *Lexicon) Classify(_ context.Context, text string) (model.ModelVerdict, error) {
	if tooShort(text) {
		return shortTextVerdict(l.Name()), nil
	}

	tokens := tokenize(Preprocess(text))

	var posSum, negSum, neuSum float64
	for i, tok := range tokens {
		v, ok := valences[tok]
		if !ok {
			_, isBooster := boosters[tok]
			if !isBooster && !negators[tok] {
				neuSum += neutralTokenWeight
			}
			continue
		}

		// Booster directly before the sentiment word scales it.
		if i > 0 {
			if b, ok := boosters[tokens[i-1]]; ok {
				if v > 0 {
					v += b
				} else {
					v -= b
				}
			}
		}

		// A negator within the three preceding tokens flips the sign.
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if negators[tokens[j]] {
				v = -v * negationDampener
				break
			}
		}

		if v > 0 {
			posSum += v
		} else {
			negSum += -v
		}
	}

	// Exclamation marks amplify whatever sentiment is present.
	if n := strings.Count(text, "!"); n > 0 {
		if n > 3 {
			n = 3
		}
		emphasis := 1 + 0.18*float64(n)
		posSum *= emphasis
		negSum *= emphasis
	}

	total := posSum + negSum + neuSum
	if total == 0 {
		return shortTextVerdict(l.Name()), nil
	}

	return model.ModelVerdict{
		Model: l.Name(),
		Scores: model.Scores{
			Positive: posSum / total,
			Negative: negSum / total,
			Neutral:  neuSum / total,
		},
	}, nil
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.Trim(f, ".,!?;:'\"-"))
	}
	return tokens
}
