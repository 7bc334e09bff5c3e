package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
)

// ageUnknown is the sentinel for a failed WHOIS lookup. Unknown age
// never fires the detector.
const ageUnknown = -1

// DomainAge fires when the domain's WHOIS creation date is more recent
// than the configured window. Freshly registered domains are a classic
// phishing tell.
type DomainAge struct {
	Weight     int
	WindowDays int
	Timeout    time.Duration

	// AgeDays overrides the WHOIS lookup; tests use it.
	AgeDays func(domain string) int
}

func (d *DomainAge) Name() string { return "domain-age" }

func (d *DomainAge) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Hostname == "" {
		return Signal{}, nil
	}

	lookup := d.AgeDays
	if lookup == nil {
		lookup = func(domain string) int { return whoisAgeDays(domain, d.Timeout) }
	}

	age := lookup(t.Hostname)
	if age >= 0 && age < d.WindowDays {
		return Signal{
			Fired:  true,
			Score:  d.Weight,
			Reason: fmt.Sprintf("Site is very new (%d days old)", age),
		}, nil
	}
	return Signal{}, nil
}

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// whoisAgeDays resolves the registration age of a domain in days, or
// ageUnknown when the record cannot be fetched or parsed. Subdomains
// fall back to their parent domain, since registrars only know the
// registered name.
func whoisAgeDays(domain string, timeout time.Duration) int {
	client := whois.NewClient()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	raw, err := client.Whois(domain)
	if err != nil {
		return ageUnknown
	}

	p, err := parser.Parse(raw)
	if err != nil || p.Domain == nil {
		parts := strings.Split(domain, ".")
		if len(parts) > 2 {
			return whoisAgeDays(strings.Join(parts[1:], "."), timeout)
		}
		return ageUnknown
	}

	createdStr := strings.TrimSpace(p.Domain.CreatedDate)
	var created time.Time
	for _, l := range whoisDateLayouts {
		if t, err := time.Parse(l, createdStr); err == nil {
			created = t
			break
		}
	}
	if created.IsZero() {
		return ageUnknown
	}
	return int(time.Since(created).Hours() / 24)
}
