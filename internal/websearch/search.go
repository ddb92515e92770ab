// Package websearch looks up short web snippets for performer and
// publisher names using the DuckDuckGo HTML endpoint.
package websearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// DefaultMaxResults caps a search when the caller passes zero.
const DefaultMaxResults = 5

// Result is one search hit
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// HTTPStatusError reports a non-2xx answer from the search endpoint
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Client queries one search endpoint at a bounded rate
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxResults int
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL           string
	MaxResults        int
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// New builds a search client
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "https://html.duckduckgo.com"
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(opts.Timeout)
	}

	return &Client{
		baseURL:    base,
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxResults: maxResults,
	}
}

// Search returns at most limit results for query; limit <= 0 means the
// client default. Blank queries return no results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = c.maxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := c.baseURL + "/html/?q=" + url.QueryEscape(query)
	body, err := fetchURL(ctx, c.http, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return ParseResults(body, limit)
}

// ParseResults extracts hits from a DuckDuckGo HTML results page.
func ParseResults(html []byte, limit int) ([]Result, error) {
	if len(html) == 0 {
		return nil, errors.New("empty results page")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		title := normSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     unwrapRedirect(href),
			Snippet: normSpace(s.Find(".result__snippet").First().Text()),
		})
		return true
	})
	return results, nil
}

// unwrapRedirect turns //duckduckgo.com/l/?uddg=<target> into <target>.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, 2<<20))
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
