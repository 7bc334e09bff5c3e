package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeaturesNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"http://a b.com/space-in-host",
		"not a url at all",
		"://",
		"http://",
	}
	for _, in := range inputs {
		fv := ExtractFeatures(in)
		assert.Len(t, fv, FeatureCount, "input %q", in)
	}
}

func TestExtractFeaturesMalformedYieldsZeroVector(t *testing.T) {
	fv := ExtractFeatures("http://a b.com/login")
	assert.Equal(t, FeatureVector{}, fv)
}

func TestExtractFeaturesIPAndKeyword(t *testing.T) {
	fv := ExtractFeatures("http://1.2.3.4/login")

	assert.Equal(t, float64(1), fv[6], "IP-literal flag")
	assert.Equal(t, float64(1), fv[7], "suspicious-keyword flag")
}

func TestExtractFeaturesFieldValues(t *testing.T) {
	raw := "http://sub.example-site.com/a@b"
	fv := ExtractFeatures(raw)

	assert.Equal(t, float64(len(raw)), fv[0], "url length")
	assert.Equal(t, float64(len("sub.example-site.com")), fv[1], "hostname length")
	assert.Equal(t, float64(2), fv[2], "dot count")
	assert.Equal(t, float64(1), fv[3], "hyphen count")
	assert.Equal(t, float64(1), fv[4], "at-sign flag")
	assert.Equal(t, float64(2), fv[5], "hostname dot count")
	assert.Equal(t, float64(0), fv[6], "IP-literal flag")
	assert.Equal(t, float64(0), fv[7], "keyword flag")
}
