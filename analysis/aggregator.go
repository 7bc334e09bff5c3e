package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"phishguard/ai"
)

// Policy selects how detector signals are combined. It is fixed at
// construction; the two strategies are never mixed within one request.
type Policy int

const (
	// PolicyWeighted accumulates capped point contributions from all
	// detectors and compares the total against a threshold.
	PolicyWeighted Policy = iota
	// PolicyShortCircuit walks detectors in priority order and stops at
	// the first one that fires.
	PolicyShortCircuit
)

// Verdict statuses. No code path other than the active policy may
// decide between them.
const (
	StatusPhishing   = "Phishing"
	StatusLegitimate = "Legitimate"
)

const safeMessage = "This site appears to be safe."

// Verdict is the final output for one analyzed URL.
type Verdict struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons"`
	Score   int      `json:"phishing_score,omitempty"`
}

type fetchFunc func(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error)

// Aggregator runs the detector set over a URL and combines the signals
// under the configured policy. It holds only immutable reference data
// and is safe for concurrent use.
type Aggregator struct {
	policy Policy
	cfg    Config
	fetch  fetchFunc

	// weighted slots in fixed order; reasons are emitted in this order
	// regardless of evaluation concurrency.
	weighted []Detector
	// short-circuit priority order.
	ordered []Detector
}

// NewAggregator wires the detector set from the reference data. A nil
// llm client disables the LLM detector; an absent VT_API_KEY disables
// external reputation.
func NewAggregator(policy Policy, model *Model, brands *BrandTable, llm *ai.Client, cfg Config) *Aggregator {
	a := &Aggregator{policy: policy, cfg: cfg, fetch: FetchPage}

	a.weighted = []Detector{
		&Classifier{Model: model, Weight: cfg.ClassifierWeight, ReasonThreshold: cfg.ClassifierReasonThreshold},
		&DomainAge{Weight: cfg.DomainAgeWeight, WindowDays: cfg.YoungDomainDays, Timeout: cfg.LookupTimeout},
		&CertQuality{Weight: cfg.CertWeight, Markers: cfg.FreeCAMarkers, Timeout: cfg.LookupTimeout},
		&PasswordField{},
		&ExternalFavicon{Weight: cfg.FaviconWeight},
		&ObfuscatedJS{Weight: cfg.ObfuscatedJSWeight, MinBytes: cfg.MinScriptBytes, Ratio: cfg.ObfuscationRatio},
		&LogoImpersonation{Weight: cfg.LogoWeight, MaxDistance: cfg.LogoMaxDistance},
	}

	a.ordered = []Detector{
		&BrandImpersonation{Table: brands},
		&Reputation{APIKey: os.Getenv("VT_API_KEY"), VoteThreshold: cfg.VoteThreshold, Timeout: cfg.LookupTimeout},
		&DomainAge{WindowDays: cfg.YoungDomainDays, Timeout: cfg.LookupTimeout},
		&LLMJudge{Client: llm, MaxChars: cfg.TextPrefixChars},
		&Classifier{Model: model, Trigger: cfg.ClassifierTrigger},
	}

	return a
}

// Analyze evaluates one URL and always returns a well-formed Verdict;
// detector failures degrade to skipped signals.
func (a *Aggregator) Analyze(ctx context.Context, rawURL string) Verdict {
	t := NewTarget(rawURL)
	if a.policy == PolicyShortCircuit {
		return a.shortCircuit(ctx, t)
	}
	return a.weightedScore(ctx, t)
}

func (a *Aggregator) weightedScore(ctx context.Context, t *Target) Verdict {
	page, fetchErr := a.fetch(ctx, t.RawURL, a.cfg.FetchTimeout)
	if fetchErr == nil {
		t.Page = page
	}

	// All contributions are independent here, so detectors run
	// concurrently; indexed slots keep the reason order stable.
	signals := make([]Signal, len(a.weighted))
	failures := make([]error, len(a.weighted))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range a.weighted {
		g.Go(func() error {
			signals[i], failures[i] = safeEvaluate(gctx, d, t)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	reasons := []string{}
	for i, d := range a.weighted {
		if err := failures[i]; err != nil {
			if !errors.Is(err, ErrNoPage) {
				log.Printf("[Aggregator] %s skipped: %v", d.Name(), err)
				reasons = append(reasons, diagnosticReason(d))
			}
			continue
		}
		total += signals[i].Score
		if signals[i].Fired && signals[i].Reason != "" {
			reasons = append(reasons, signals[i].Reason)
		}
	}
	if fetchErr != nil {
		reasons = append(reasons, fmt.Sprintf("Could not perform live analysis: %v", fetchErr))
	}

	if total > 100 {
		total = 100
	}

	if total > a.cfg.ScoreThreshold {
		message := "AI model flagged this site."
		if len(reasons) > 0 {
			message = strings.Join(reasons, ". ")
		}
		return Verdict{Status: StatusPhishing, Message: message, Reasons: reasons, Score: total}
	}
	return Verdict{Status: StatusLegitimate, Message: safeMessage, Reasons: reasons, Score: total}
}

func (a *Aggregator) shortCircuit(ctx context.Context, t *Target) Verdict {
	reasons := []string{}
	pageTried := false

	for _, d := range a.ordered {
		if needsPage(d) && t.Page == nil && !pageTried {
			pageTried = true
			page, err := a.fetch(ctx, t.RawURL, a.cfg.FetchTimeout)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("Could not perform live analysis: %v", err))
			} else {
				t.Page = page
			}
		}

		sig, err := safeEvaluate(ctx, d, t)
		if err != nil {
			if !errors.Is(err, ErrNoPage) {
				log.Printf("[Aggregator] %s skipped: %v", d.Name(), err)
				reasons = append(reasons, diagnosticReason(d))
			}
			continue
		}
		if sig.Fired {
			reasons = append(reasons, sig.Reason)
			return Verdict{Status: StatusPhishing, Message: sig.Reason, Reasons: reasons}
		}
	}

	reasons = append(reasons, "No risk factors detected")
	return Verdict{Status: StatusLegitimate, Message: safeMessage, Reasons: reasons}
}

func needsPage(d Detector) bool {
	pc, ok := d.(interface{ NeedsPage() bool })
	return ok && pc.NeedsPage()
}

func diagnosticReason(d Detector) string {
	return fmt.Sprintf("Live analysis could not be completed (%s)", d.Name())
}
