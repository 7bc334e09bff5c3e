package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	name  string
	sig   Signal
	err   error
	panic bool
}

func (s *stubDetector) Name() string { return s.name }

func (s *stubDetector) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if s.panic {
		panic("detector bug")
	}
	return s.sig, s.err
}

func stubFetch(html string) fetchFunc {
	return func(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, err
		}
		return &Page{URL: rawURL, HTML: html, Doc: doc}, nil
	}
}

func weightedAggregator(dets ...Detector) *Aggregator {
	return &Aggregator{
		policy:   PolicyWeighted,
		cfg:      DefaultConfig(),
		fetch:    stubFetch("<html><body>hi</body></html>"),
		weighted: dets,
	}
}

func shortCircuitAggregator(dets ...Detector) *Aggregator {
	return &Aggregator{
		policy:  PolicyShortCircuit,
		cfg:     DefaultConfig(),
		fetch:   stubFetch("<html><body>hi</body></html>"),
		ordered: dets,
	}
}

func TestWeightedScoreCapsAtHundred(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "classifier", sig: Signal{Fired: true, Score: 50, Reason: "classifier reason"}},
		&stubDetector{name: "domain-age", sig: Signal{Fired: true, Score: 25, Reason: "age reason"}},
		&stubDetector{name: "cert", sig: Signal{Fired: true, Score: 15, Reason: "cert reason"}},
		&stubDetector{name: "favicon", sig: Signal{Fired: true, Score: 10, Reason: "favicon reason"}},
		&stubDetector{name: "obf-js", sig: Signal{Fired: true, Score: 20, Reason: "js reason"}},
		&stubDetector{name: "logo", sig: Signal{Fired: true, Score: 30, Reason: "logo reason"}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusPhishing, v.Status)
	assert.Equal(t, 100, v.Score, "150 raw points must cap at 100")
	assert.Equal(t, []string{
		"classifier reason", "age reason", "cert reason",
		"favicon reason", "js reason", "logo reason",
	}, v.Reasons, "reason order follows detector order, not completion order")
}

func TestWeightedScoreCountsUnfiredClassifierContribution(t *testing.T) {
	// The classifier contributes its confidence score even below the
	// reason threshold.
	agg := weightedAggregator(
		&stubDetector{name: "classifier", sig: Signal{Score: 45}},
		&stubDetector{name: "domain-age", sig: Signal{Fired: true, Score: 25, Reason: "age reason"}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusPhishing, v.Status)
	assert.Equal(t, 70, v.Score)
	assert.Equal(t, []string{"age reason"}, v.Reasons)
}

func TestWeightedScoreBelowThresholdIsLegitimate(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "cert", sig: Signal{Fired: true, Score: 15, Reason: "cert reason"}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusLegitimate, v.Status)
	assert.Equal(t, safeMessage, v.Message)
	assert.Equal(t, 15, v.Score)
}

func TestWeightedPhishingWithoutReasonsUsesFallbackMessage(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "classifier", sig: Signal{Score: 65}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusPhishing, v.Status)
	assert.Equal(t, "AI model flagged this site.", v.Message)
}

func TestWeightedToleratesFailingAndPanickingDetectors(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "broken", err: context.DeadlineExceeded},
		&stubDetector{name: "buggy", panic: true},
		&stubDetector{name: "age", sig: Signal{Fired: true, Score: 25, Reason: "age reason"}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusLegitimate, v.Status)
	assert.Contains(t, v.Reasons, "age reason")
	assert.Contains(t, v.Reasons, "Live analysis could not be completed (broken)")
	assert.Contains(t, v.Reasons, "Live analysis could not be completed (buggy)")
}

func TestShortCircuitStopsAtFirstFiring(t *testing.T) {
	agg := shortCircuitAggregator(
		&stubDetector{name: "brand", sig: Signal{Fired: true, Reason: "Impersonating the brand 'Paypal'"}},
		&stubDetector{name: "reputation", sig: Signal{Fired: true, Reason: "should never appear"}},
	)

	v := agg.Analyze(context.Background(), "http://paypa1.evil.net")

	assert.Equal(t, StatusPhishing, v.Status)
	assert.Equal(t, []string{"Impersonating the brand 'Paypal'"}, v.Reasons)
	assert.NotContains(t, v.Reasons, "should never appear")
}

func TestShortCircuitNoFiringIsLegitimate(t *testing.T) {
	agg := shortCircuitAggregator(
		&stubDetector{name: "brand"},
		&stubDetector{name: "reputation"},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusLegitimate, v.Status)
	assert.Equal(t, []string{"No risk factors detected"}, v.Reasons)
}

func TestShortCircuitSkipsFailingDetector(t *testing.T) {
	agg := shortCircuitAggregator(
		&stubDetector{name: "broken", err: context.DeadlineExceeded},
		&stubDetector{name: "age", sig: Signal{Fired: true, Reason: "age reason"}},
	)

	v := agg.Analyze(context.Background(), "http://example.com")

	assert.Equal(t, StatusPhishing, v.Status)
	assert.Equal(t, []string{"Live analysis could not be completed (broken)", "age reason"}, v.Reasons)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "classifier", sig: Signal{Fired: true, Score: 40, Reason: "classifier reason"}},
		&stubDetector{name: "cert", sig: Signal{Fired: true, Score: 15, Reason: "cert reason"}},
	)

	first := agg.Analyze(context.Background(), "http://example.com")
	second := agg.Analyze(context.Background(), "http://example.com")

	require.Equal(t, first, second)
}

func TestWeightedReportsFetchFailure(t *testing.T) {
	agg := weightedAggregator(
		&stubDetector{name: "classifier", sig: Signal{Score: 10}},
	)
	agg.fetch = func(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error) {
		return nil, context.DeadlineExceeded
	}

	v := agg.Analyze(context.Background(), "http://example.com")

	require.Len(t, v.Reasons, 1)
	assert.Contains(t, v.Reasons[0], "Could not perform live analysis")
}
