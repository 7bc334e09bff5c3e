package analysis

import (
	"context"
	"fmt"
	"strings"
)

// BrandImpersonation flags hostnames that carry a known brand keyword
// while resolving to a registered domain other than the brand's own.
// Common lookalike substitutions are folded before matching so
// "paypa1-secure" still matches "paypal".
type BrandImpersonation struct {
	Table *BrandTable
}

func (d *BrandImpersonation) Name() string { return "brand-impersonation" }

var lookalikeFolder = strings.NewReplacer(
	"1", "l",
	"0", "o",
	"3", "e",
	"5", "s",
	"@", "a",
	"$", "s",
)

// foldLookalikes is applied to both sides of the match, so brand
// keywords that legitimately contain digits line up with folded labels.
func foldLookalikes(s string) string {
	return lookalikeFolder.Replace(strings.ToLower(s))
}

func (d *BrandImpersonation) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if d.Table.Len() == 0 || t.Registered == "" {
		return Signal{}, nil
	}

	// A brand's own site never counts as impersonation.
	if official, ok := d.Table.Official(t.DomainLabel()); ok && official == t.Registered {
		return Signal{}, nil
	}

	label := foldLookalikes(t.DomainLabel())
	sub := foldLookalikes(t.Subdomain())

	// First matching brand wins; no point scanning further once fired.
	for _, kw := range d.Table.Keywords() {
		official, _ := d.Table.Official(kw)
		if t.Registered == official {
			continue
		}
		folded := foldLookalikes(kw)
		if strings.Contains(label, folded) || strings.Contains(sub, folded) {
			return Signal{
				Fired:  true,
				Reason: fmt.Sprintf("Impersonating the brand '%s'", titleCase(kw)),
			}, nil
		}
	}
	return Signal{}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
