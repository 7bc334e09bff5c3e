package analysis

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"
)

// CertQuality inspects the certificate presented on :443. A free/basic
// issuer is a weak positive signal, not proof; a failed handshake also
// fires since the absence of a reputable certificate is itself
// suspicious under this policy.
type CertQuality struct {
	Weight  int
	Markers []string // issuer organization substrings for free CAs
	Timeout time.Duration
}

func (d *CertQuality) Name() string { return "certificate-quality" }

const certReason = "Uses a basic or invalid SSL certificate"

func (d *CertQuality) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Hostname == "" {
		return Signal{}, nil
	}

	dialer := &net.Dialer{Timeout: d.Timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", t.Hostname+":443", &tls.Config{
		ServerName: t.Hostname,
	})
	if err != nil {
		return Signal{Fired: true, Score: d.Weight, Reason: certReason}, nil
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return Signal{Fired: true, Score: d.Weight, Reason: certReason}, nil
	}

	issuer := strings.Join(certs[0].Issuer.Organization, " ")
	if issuerIsBasic(issuer, d.Markers) {
		return Signal{Fired: true, Score: d.Weight, Reason: certReason}, nil
	}
	return Signal{}, nil
}

func issuerIsBasic(org string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(org, m) {
			return true
		}
	}
	return false
}
