// Package metadata looks up page titles and descriptions for newly
// saved bookmarks. Everything here is best effort: a failed fetch
// degrades to a title derived from the URL and never blocks creation.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/stashspark/stashspark/internal/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result holds whatever page metadata could be extracted.
type Result struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Fetcher retrieves page metadata with a bounded timeout.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a Fetcher. A nil client falls back to
// http.DefaultClient.
func New(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch downloads the page at rawURL and extracts title, description,
// image and site name from its meta tags. Open Graph wins over
// Twitter cards, which win over plain HTML tags.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	title := firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
		strings.TrimSpace(doc.Find("h1").First().Text()),
	)
	description := firstNonEmpty(
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="twitter:description"]`),
		metaContent(doc, `meta[name="description"]`),
	)
	image := firstNonEmpty(
		metaContent(doc, `meta[property="og:image"]`),
		metaContent(doc, `meta[name="twitter:image"]`),
		attrValue(doc, `link[rel="image_src"]`, "href"),
	)

	return Result{
		Title:       title,
		Description: description,
		Image:       image,
		SiteName:    metaContent(doc, `meta[property="og:site_name"]`),
	}, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	return attrValue(doc, selector, "content")
}

func attrValue(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FallbackTitle derives a readable title from the URL itself, used
// when the page could not be fetched. "https://ex.com/go-tips.html"
// becomes "Go Tips - ex.com".
func FallbackTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Untitled bookmark"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")

	segment := path.Base(u.Path)
	if segment == "/" || segment == "." || segment == "" {
		return host
	}

	segment = strings.TrimSuffix(segment, path.Ext(segment))
	segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return host
	}

	words := strings.Fields(segment)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " - " + host
}

// Domain extracts the hostname of a URL, empty when unparseable.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ValidURL reports whether rawURL is an absolute http(s) URL.
func ValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}
