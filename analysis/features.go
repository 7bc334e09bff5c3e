package analysis

import (
	"net/url"
	"regexp"
	"strings"
)

// FeatureCount is the fixed width of the lexical feature vector. The
// trained model and the extractor must always agree on it.
const FeatureCount = 8

// FeatureVector holds the lexical features of a URL, in the order the
// model was trained against: total length, hostname length, dot count,
// hyphen count, has-@ flag, hostname dot count, IP-literal flag,
// suspicious-keyword flag.
type FeatureVector [FeatureCount]float64

var suspiciousKeywords = []string{"login", "secure", "bank", "account", "verify", "password"}

var ipv4Literal = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}`)

// ExtractFeatures derives the feature vector from a raw URL string. It
// never fails: any parse error yields the zero vector.
func ExtractFeatures(rawURL string) FeatureVector {
	var fv FeatureVector

	u, err := url.Parse(rawURL)
	if err != nil {
		return fv
	}
	host := u.Host

	fv[0] = float64(len(rawURL))
	fv[1] = float64(len(host))
	fv[2] = float64(strings.Count(rawURL, "."))
	fv[3] = float64(strings.Count(rawURL, "-"))
	if strings.Contains(rawURL, "@") {
		fv[4] = 1
	}
	fv[5] = float64(strings.Count(host, "."))
	if ipv4Literal.MatchString(host) {
		fv[6] = 1
	}
	lower := strings.ToLower(rawURL)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			fv[7] = 1
			break
		}
	}
	return fv
}
