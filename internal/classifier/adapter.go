package classifier

import (
	"context"
	"regexp"
	"strings"

	"newspulse/internal/model"
)

// Adapter is the uniform capability every sentiment classifier
// implements. Classify returns a per-class score distribution for the
// given text; implementations never mutate shared state and are safe
// for concurrent use.
type Adapter interface {
	// Name returns the model id used for weight lookup.
	Name() string

	// Classify scores the text. Implementations must honor ctx
	// cancellation on any blocking path.
	Classify(ctx context.Context, text string) (model.ModelVerdict, error)
}

// minTextLength is the minimum input length worth classifying.
// Shorter texts get the fixed neutral verdict below.
const minTextLength = 10

// maxTextLength caps input passed to the models.
const maxTextLength = 512

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)
	spacePattern = regexp.MustCompile(`\s+`)
	junkPattern  = regexp.MustCompile(`[^\w\s.,!?;:'-]`)
)

// Preprocess normalizes text before classification: URLs and email
// addresses are stripped, whitespace collapsed, non-sentiment symbols
// removed, and long inputs truncated at a sentence boundary near the
// model limit.
func Preprocess(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	text = junkPattern.ReplaceAllString(text, "")

	if len(text) > maxTextLength {
		truncated := ""
		for _, sentence := range strings.Split(text, ".") {
			if len(truncated)+len(sentence)+1 > maxTextLength {
				break
			}
			truncated += sentence + "."
		}
		if truncated == "" {
			truncated = text[:maxTextLength]
		}
		text = truncated
	}

	return strings.TrimSpace(text)
}

// shortTextVerdict is returned for inputs too short to carry signal.
func shortTextVerdict(name string) model.ModelVerdict {
	return model.ModelVerdict{
		Model:  name,
		Scores: model.Scores{Positive: 0.33, Negative: 0.33, Neutral: 0.34},
	}
}

// tooShort reports whether the text is below the analysis threshold.
func tooShort(text string) bool {
	return len(strings.TrimSpace(text)) < minTextLength
}
