package analysis

import (
	"context"

	"phishguard/ai"
)

// LLMJudge asks the language model to classify the page's visible text.
// A nil client means the credential is absent and the detector is
// disabled entirely.
type LLMJudge struct {
	Client   *ai.Client
	MaxChars int
}

func (d *LLMJudge) Name() string    { return "llm-content-judgment" }
func (d *LLMJudge) NeedsPage() bool { return true }

func (d *LLMJudge) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if d.Client == nil {
		return Signal{}, nil
	}
	if t.Page == nil {
		return Signal{}, ErrNoPage
	}

	text := t.Page.Text(d.MaxChars)
	if text == "" {
		return Signal{}, nil
	}

	verdict, err := d.Client.ClassifyText(ctx, text)
	if err != nil {
		return Signal{}, err
	}
	if verdict.Verdict == ai.VerdictHighRisk {
		reason := verdict.Explanation
		if reason == "" {
			reason = "AI content analysis flagged this page"
		}
		return Signal{Fired: true, Reason: reason}, nil
	}
	return Signal{}, nil
}
