package analysis

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corona10/goimagehash"
	"github.com/ditashi/jsbeautifier-go/jsbeautifier"
	"golang.org/x/net/publicsuffix"
)

// Average hashes of well-known brand logos. Keyed by the brand's
// second-level label so a brand's own site is exempt from the logo
// check.
var trustedBrandLogos = map[string]*goimagehash.ImageHash{
	"google":    goimagehash.NewImageHash(0xffc3818181c3ffff, goimagehash.AHash),
	"facebook":  goimagehash.NewImageHash(0xffc3c1e0e0c1c3ff, goimagehash.AHash),
	"microsoft": goimagehash.NewImageHash(0xf7f7a5a5a5a5f7f7, goimagehash.AHash),
}

var subresourceClient = &http.Client{Timeout: 3 * time.Second}

// resolveRef resolves a possibly-relative href against the page URL.
func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func registeredDomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	return reg
}

// PasswordField flags pages carrying a password input. It contributes a
// reason only, no score: credential forms are common on legitimate
// sites too.
type PasswordField struct{}

func (d *PasswordField) Name() string    { return "password-field" }
func (d *PasswordField) NeedsPage() bool { return true }

func (d *PasswordField) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Page == nil {
		return Signal{}, ErrNoPage
	}
	if t.Page.Doc.Find("input[type='password']").Length() > 0 {
		return Signal{Fired: true, Reason: "Page contains a password field"}, nil
	}
	return Signal{}, nil
}

// ExternalFavicon flags a favicon hosted under a different registered
// domain than the page itself.
type ExternalFavicon struct {
	Weight int
}

func (d *ExternalFavicon) Name() string    { return "external-favicon" }
func (d *ExternalFavicon) NeedsPage() bool { return true }

func (d *ExternalFavicon) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Page == nil {
		return Signal{}, ErrNoPage
	}

	var fired bool
	t.Page.Doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "icon") {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		iconDomain := registeredDomainOf(resolveRef(t.Page.URL, href))
		if iconDomain != "" && t.Registered != "" && iconDomain != t.Registered {
			fired = true
		}
		return false // only the first icon link matters
	})

	if fired {
		return Signal{Fired: true, Score: d.Weight, Reason: "Favicon is hosted on a different domain"}, nil
	}
	return Signal{}, nil
}

// ObfuscatedJS fetches each linked script and compares its beautified
// form against the original. Minified-but-honest code grows when
// beautified; code that shrinks dramatically is treated as an
// obfuscation hit.
type ObfuscatedJS struct {
	Weight   int
	MinBytes int
	Ratio    float64
}

func (d *ObfuscatedJS) Name() string    { return "obfuscated-js" }
func (d *ObfuscatedJS) NeedsPage() bool { return true }

func (d *ObfuscatedJS) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Page == nil {
		return Signal{}, ErrNoPage
	}

	hits := 0
	t.Page.Doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			return
		}
		code, err := fetchSubresource(ctx, resolveRef(t.Page.URL, src))
		if err != nil {
			return // unreachable script never fails the detector
		}
		if scriptLooksObfuscated(code, d.MinBytes, d.Ratio) {
			hits++
		}
	})

	if hits > 0 {
		return Signal{Fired: true, Score: d.Weight, Reason: "Detected potentially obfuscated JavaScript"}, nil
	}
	return Signal{}, nil
}

func scriptLooksObfuscated(code string, minBytes int, ratio float64) bool {
	if len(code) <= minBytes {
		return false
	}
	pretty, err := jsbeautifier.Beautify(&code, jsbeautifier.DefaultOptions())
	if err != nil {
		return false
	}
	return float64(len(pretty)) < float64(len(code))*ratio
}

// LogoImpersonation fetches every image whose source mentions "logo"
// and compares its perceptual hash against the trusted brand set. Only
// fires when the page's own domain is not itself a recognized brand.
type LogoImpersonation struct {
	Weight      int
	MaxDistance int
}

func (d *LogoImpersonation) Name() string    { return "logo-impersonation" }
func (d *LogoImpersonation) NeedsPage() bool { return true }

func (d *LogoImpersonation) Evaluate(ctx context.Context, t *Target) (Signal, error) {
	if t.Page == nil {
		return Signal{}, ErrNoPage
	}
	if _, isBrand := trustedBrandLogos[t.DomainLabel()]; isBrand {
		return Signal{}, nil
	}

	var fired bool
	t.Page.Doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if !strings.Contains(strings.ToLower(src), "logo") {
			return true
		}
		hash, err := hashRemoteImage(ctx, resolveRef(t.Page.URL, src))
		if err != nil {
			return true // broken image, keep scanning
		}
		if matchesTrustedLogo(hash, d.MaxDistance) {
			fired = true
			return false
		}
		return true
	})

	if fired {
		return Signal{Fired: true, Score: d.Weight, Reason: "Impersonating a trusted brand's logo"}, nil
	}
	return Signal{}, nil
}

func matchesTrustedLogo(hash *goimagehash.ImageHash, maxDistance int) bool {
	for _, ref := range trustedBrandLogos {
		dist, err := hash.Distance(ref)
		if err == nil && dist < maxDistance {
			return true
		}
	}
	return false
}

func hashRemoteImage(ctx context.Context, imgURL string) (*goimagehash.ImageHash, error) {
	body, err := fetchSubresource(ctx, imgURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return goimagehash.AverageHash(img)
}

func fetchSubresource(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := subresourceClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
