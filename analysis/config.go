package analysis

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable weights and thresholds of the risk pipeline.
// The heuristic cutoffs (logo distance, obfuscation ratio) are
// approximations, not hard truths, so they live here rather than in the
// detectors.
type Config struct {
	// Weighted policy
	ScoreThreshold     int `yaml:"score_threshold"`      // phishing when total > this
	ClassifierWeight   int `yaml:"classifier_weight"`    // contribution = p * weight
	DomainAgeWeight    int `yaml:"domain_age_weight"`    // default 25
	CertWeight         int `yaml:"cert_weight"`          // default 15
	FaviconWeight      int `yaml:"favicon_weight"`       // default 10
	ObfuscatedJSWeight int `yaml:"obfuscated_js_weight"` // default 20
	LogoWeight         int `yaml:"logo_weight"`          // default 30

	// Classifier thresholds: the reason threshold applies under the
	// weighted policy, the trigger under short-circuit.
	ClassifierReasonThreshold float64 `yaml:"classifier_reason_threshold"` // default 0.7
	ClassifierTrigger         float64 `yaml:"classifier_trigger"`          // default 0.8

	// Detector cutoffs
	YoungDomainDays  int     `yaml:"young_domain_days"` // fires on age in [0, n)
	LogoMaxDistance  int     `yaml:"logo_max_distance"` // Hamming distance
	ObfuscationRatio float64 `yaml:"obfuscation_ratio"` // beautified/original
	MinScriptBytes   int     `yaml:"min_script_bytes"`
	VoteThreshold    int     `yaml:"vote_threshold"` // reputation fires when > n
	TextPrefixChars  int     `yaml:"text_prefix_chars"`

	// Issuer organizations treated as free/basic certificate authorities.
	FreeCAMarkers []string `yaml:"free_ca_markers"`

	// Network bounds
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:     60,
		ClassifierWeight:   50,
		DomainAgeWeight:    25,
		CertWeight:         15,
		FaviconWeight:      10,
		ObfuscatedJSWeight: 20,
		LogoWeight:         30,

		ClassifierReasonThreshold: 0.7,
		ClassifierTrigger:         0.8,

		YoungDomainDays:  90,
		LogoMaxDistance:  5,
		ObfuscationRatio: 0.5,
		MinScriptBytes:   1000,
		VoteThreshold:    2,
		TextPrefixChars:  3000,

		FreeCAMarkers: []string{"Let's Encrypt", "ZeroSSL", "cPanel"},

		FetchTimeout:  5 * time.Second,
		LookupTimeout: 6 * time.Second,
	}
}

// LoadConfig overlays a YAML file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
