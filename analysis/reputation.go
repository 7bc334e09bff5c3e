package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultVTBaseURL = "https://www.virustotal.com/api/v3"

// Reputation queries the VirusTotal URL report and fires when more than
// VoteThreshold vendors voted the URL malicious in the last analysis.
// Without an API key the detector is disabled; a failed query yields no
// signal (unknown, not negative).
type Reputation struct {
	APIKey        string
	BaseURL       string
	VoteThreshold int
	Timeout       time.Duration
}

func (d *Reputation) Name() string { return "external-reputation" }

type vtURLReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious int `json:"malicious"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (d *Reputation) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if d.APIKey == "" {
		return Signal{}, nil
	}

	base := d.BaseURL
	if base == "" {
		base = defaultVTBaseURL
	}
	// VirusTotal keys URL reports by the unpadded base64url of the URL.
	id := base64.RawURLEncoding.EncodeToString([]byte(t.RawURL))

	reqCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fmt.Sprintf("%s/urls/%s", base, id), nil)
	if err != nil {
		return Signal{}, err
	}
	req.Header.Set("x-apikey", d.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Signal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Signal{}, fmt.Errorf("reputation lookup: %s", resp.Status)
	}

	var report vtURLReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Signal{}, err
	}

	malicious := report.Data.Attributes.LastAnalysisStats.Malicious
	if malicious > d.VoteThreshold {
		return Signal{
			Fired:  true,
			Reason: fmt.Sprintf("Flagged as malicious by %d security vendors", malicious),
		}, nil
	}
	return Signal{}, nil
}
