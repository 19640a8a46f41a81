package ensemble

import (
	"fmt"

	"newspulse/internal/model"
)

// defaultWeight is assigned to verdicts from model ids absent from
// the weight table, matching the historical fallback of the ensemble.
const defaultWeight = 0.10

// labelPriority is the fixed tie-break order: when fused scores are
// equal, negative wins over positive, positive over neutral. The
// conservative bias prefers flagging risk over false calm.
var labelPriority = []model.Label{model.LabelNegative, model.LabelPositive, model.LabelNeutral}

// Aggregator fuses per-model sentiment verdicts into a single
// confidence-rated result under a static weight table. The table is
// copied at construction and never mutated; a new scoring policy
// requires a new Aggregator.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator creates an Aggregator with the given model weight
// table. The map is copied so later mutation by the caller cannot
// drift the policy mid-run.
func NewAggregator(weights map[string]float64) *Aggregator {
	copied := make(map[string]float64, len(weights))
	for id, w := range weights {
		copied[id] = w
	}
	return &Aggregator{weights: copied}
}

// WeightFor returns the configured weight for a model id, or the
// default fallback when the id is unknown.
func (a *Aggregator) WeightFor(modelID string) float64 {
	if w, ok := a.weights[modelID]; ok {
		return w
	}
	return defaultWeight
}

// Aggregate combines a non-empty set of verdicts into one result.
// For each class c: fused[c] = sum(w_i * s_i[c]) / sum(w_i). Weights
// are normalized per call, so a partial subset of models (one adapter
// down) still yields a result comparable with full-ensemble scores.
// The function is pure and order-independent.
func (a *Aggregator) Aggregate(verdicts []model.ModelVerdict) (model.EnsembleResult, error) {
	if len(verdicts) == 0 {
		return model.EnsembleResult{}, model.ErrInsufficientInput
	}

	var fused model.Scores
	var totalWeight float64

	for _, v := range verdicts {
		w := v.Weight
		if w <= 0 {
			w = a.WeightFor(v.Model)
		}
		if w > 1 {
			return model.EnsembleResult{}, fmt.Errorf("model %s: weight %v out of range (0,1]", v.Model, w)
		}
		fused.Positive += v.Scores.Positive * w
		fused.Negative += v.Scores.Negative * w
		fused.Neutral += v.Scores.Neutral * w
		totalWeight += w
	}

	fused.Positive /= totalWeight
	fused.Negative /= totalWeight
	fused.Neutral /= totalWeight

	// Renormalize so the triple sums to 1 even when individual models
	// emit unnormalized distributions.
	if sum := fused.Sum(); sum > 0 {
		fused.Positive /= sum
		fused.Negative /= sum
		fused.Neutral /= sum
	} else {
		// All-zero scores carry no signal; report an even neutral-ish
		// split rather than dividing by zero.
		fused = model.Scores{Positive: 1.0 / 3, Negative: 1.0 / 3, Neutral: 1.0 / 3}
	}

	label := argmax(fused)

	return model.EnsembleResult{
		Label:      label,
		Confidence: fused.Get(label),
		Scores:     fused,
	}, nil
}

// argmax picks the winning class, breaking exact ties by the fixed
// priority order.
func argmax(s model.Scores) model.Label {
	best := labelPriority[0]
	for _, l := range labelPriority[1:] {
		if s.Get(l) > s.Get(best) {
			best = l
		}
	}
	return best
}
