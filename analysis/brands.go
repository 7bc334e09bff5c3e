package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// BrandTable maps a brand keyword (the second-level label of a known
// brand's domain, e.g. "paypal") to its official registered domain. It
// is built once and read-only afterwards; a refresh builds a new table
// and swaps the pointer, never mutating one in use.
type BrandTable struct {
	keywords []string // sorted, for deterministic scan order
	official map[string]string
}

// LoadBrandTable builds the table from the remote CSV, falling back to
// the local snapshot, falling back to an empty table. Only the empty
// table disables brand-impersonation checks; it is never a startup
// failure.
func LoadBrandTable(remoteURL, localPath string) *BrandTable {
	if remoteURL != "" {
		t, err := loadBrandsRemote(remoteURL)
		if err == nil {
			log.Printf("[Brand] loaded %d brands from remote list", t.Len())
			return t
		}
		log.Printf("[Brand] remote list failed (%v), trying local snapshot", err)
	}

	t, err := loadBrandsFile(localPath)
	if err == nil {
		log.Printf("[Brand] loaded %d brands from %s", t.Len(), localPath)
		return t
	}
	log.Printf("[Brand] local snapshot failed (%v), impersonation checks disabled", err)

	return &BrandTable{official: map[string]string{}}
}

func loadBrandsRemote(url string) (*BrandTable, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brand list fetch: %s", resp.Status)
	}
	return ParseBrandCSV(resp.Body)
}

func loadBrandsFile(path string) (*BrandTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseBrandCSV(f)
}

// ParseBrandCSV reads rows whose last column is a domain name (rank
// lists arrive as "rank,domain") and derives keyword→official-domain
// entries. The first occurrence of a keyword wins.
func ParseBrandCSV(r io.Reader) (*BrandTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse brand csv: %w", err)
	}

	official := make(map[string]string)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		domain := strings.ToLower(strings.TrimSpace(row[len(row)-1]))
		if domain == "" || domain == "domain" {
			continue
		}
		reg, err := publicsuffix.EffectiveTLDPlusOne(domain)
		if err != nil {
			continue
		}
		keyword := strings.SplitN(reg, ".", 2)[0]
		if keyword == "" {
			continue
		}
		if _, seen := official[keyword]; !seen {
			official[keyword] = reg
		}
	}
	if len(official) == 0 {
		return nil, fmt.Errorf("brand csv contained no usable rows")
	}

	keywords := make([]string, 0, len(official))
	for kw := range official {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return &BrandTable{keywords: keywords, official: official}, nil
}

// Len reports the number of known brands.
func (t *BrandTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keywords)
}

// Official returns the official registered domain for a brand keyword.
func (t *BrandTable) Official(keyword string) (string, bool) {
	d, ok := t.official[keyword]
	return d, ok
}

// Keywords returns the brand keywords in stable sorted order.
func (t *BrandTable) Keywords() []string {
	return t.keywords
}
