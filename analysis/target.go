package analysis

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Target is the per-request view of the URL under analysis. Detectors
// share it read-only except for the Page slot, which the aggregator
// fills once (best effort) before page-dependent detectors run.
type Target struct {
	RawURL     string
	Hostname   string
	Registered string // registered domain under the public suffix
	Page       *Page  // nil when the page could not be fetched
}

// NewTarget parses a raw URL into its analysis view. A URL without a
// scheme is treated as https so bare domains from the client still
// resolve to a hostname.
func NewTarget(rawURL string) *Target {
	t := &Target{RawURL: rawURL}

	normalized := strings.TrimSpace(rawURL)
	if !strings.Contains(normalized, "://") {
		normalized = "https://" + normalized
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return t
	}
	t.Hostname = strings.ToLower(u.Hostname())

	if reg, err := publicsuffix.EffectiveTLDPlusOne(t.Hostname); err == nil {
		t.Registered = reg
	}
	return t
}

// DomainLabel is the second-level label of the registered domain, e.g.
// "paypal" for foo.paypal.com.
func (t *Target) DomainLabel() string {
	if t.Registered == "" {
		return ""
	}
	return strings.SplitN(t.Registered, ".", 2)[0]
}

// Subdomain is everything left of the registered domain, without the
// trailing dot.
func (t *Target) Subdomain() string {
	if t.Registered == "" || t.Hostname == t.Registered {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(t.Hostname, t.Registered), ".")
}
