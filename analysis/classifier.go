package analysis

import "context"

// Classifier applies the trained model to the URL's lexical features.
// With a Trigger set it acts as a hard short-circuit check; otherwise it
// contributes a confidence-scaled score and a reason above the reason
// threshold.
type Classifier struct {
	Model           *Model
	Weight          int
	ReasonThreshold float64
	Trigger         float64

	// Probability overrides the model lookup; tests use it.
	Probability func(fv FeatureVector) float64
}

func (d *Classifier) Name() string { return "statistical-classifier" }

const classifierReason = "AI model detected suspicious URL patterns"

func (d *Classifier) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	prob := d.Probability
	if prob == nil {
		prob = d.Model.Probability
	}
	p := prob(ExtractFeatures(t.RawURL))

	if d.Trigger > 0 {
		if p > d.Trigger {
			return Signal{Fired: true, Reason: classifierReason}, nil
		}
		return Signal{}, nil
	}

	// The confidence contribution is always counted, fired or not.
	sig := Signal{Score: int(p * float64(d.Weight))}
	if p > d.ReasonThreshold {
		sig.Fired = true
		sig.Reason = classifierReason
	}
	return sig, nil
}
