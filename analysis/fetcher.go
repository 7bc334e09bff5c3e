package analysis

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Bodies smaller than this are assumed to be JS-rendered shells worth a
// headless retry.
const minRenderedBytes = 512

// Page is the fetched HTML of the target, parsed once and shared by the
// page-dependent detectors.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
}

// Text returns the visible text of the page, truncated to limit runes.
func (p *Page) Text(limit int) string {
	text := strings.Join(strings.Fields(p.Doc.Text()), " ")
	if limit > 0 {
		if runes := []rune(text); len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return text
}

// FetchPage retrieves the target URL. HTTP first (fast, handles most
// pages); if that fails or returns a near-empty body, a headless Chrome
// render is attempted unless SKIP_CHROMEDP=true.
func FetchPage(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error) {
	html, httpErr := fetchHTTP(ctx, rawURL, timeout)

	if httpErr != nil || len(html) < minRenderedBytes {
		if os.Getenv("SKIP_CHROMEDP") == "true" {
			if httpErr != nil {
				return nil, httpErr
			}
		} else {
			rendered, err := fetchRendered(ctx, rawURL)
			if err == nil {
				html, httpErr = rendered, nil
			} else if httpErr != nil {
				log.Printf("[Fetch] headless fallback failed for %s: %v", rawURL, err)
				return nil, httpErr
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{URL: rawURL, HTML: html, Doc: doc}, nil
}

func fetchHTTP(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// fetchRendered loads the URL in headless Chrome and returns the DOM
// after scripts have run.
func fetchRendered(ctx context.Context, rawURL string) (string, error) {
	renderCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.UserAgent(fetchUserAgent),
	)
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(renderCtx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second), // let late scripts settle
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
