package analysis

import (
	"context"
	"errors"
	"fmt"
)

// Signal is the result of one detector run. A detector that found nothing
// returns the zero Signal. Score is only meaningful under the weighted
// policy; the classifier contributes its score even when not fired.
type Signal struct {
	Fired  bool
	Score  int
	Reason string
}

// Detector is a single independent check over a Target. A failing
// detector returns an error and is skipped by the aggregator; it never
// aborts the request.
type Detector interface {
	Name() string
	Evaluate(ctx context.Context, t *Target) (Signal, error)
}

// ErrNoPage is returned by page-dependent detectors when the target's
// HTML could not be fetched. The aggregator already reports the fetch
// failure once, so this sentinel is skipped without extra logging.
var ErrNoPage = errors.New("page content unavailable")

// safeEvaluate runs a detector and converts a panic into an error so a
// buggy check degrades to a skipped signal.
func safeEvaluate(ctx context.Context, d Detector, t *Target) (sig Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", d.Name(), r)
		}
	}()
	return d.Evaluate(ctx, t)
}
