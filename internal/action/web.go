package action

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxPageBytes = 2 << 20 // 2 MiB cap on fetched pages
	maxPageText  = 8000    // characters of extracted text kept for prompts
	userAgent    = "goforge/1.0 (+https://github.com/goforge/goforge)"
)

// Page is the readable content of a fetched URL.
type Page struct {
	Title string
	Text  string
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebClient fetches pages and runs web searches for browse_url and
// search_web actions.
type WebClient struct {
	httpClient *http.Client
}

func NewWebClient(timeout time.Duration) *WebClient {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &WebClient{httpClient: &http.Client{Timeout: timeout}}
}

// Browse fetches a URL and extracts its title and visible text.
func (w *WebClient) Browse(ctx context.Context, target string) (*Page, error) {
	doc, err := w.fetchHTML(ctx, target)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "svg":
				return
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if page.Text != "" {
					page.Text += "\n"
				}
				page.Text += text
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(doc)

	if len(page.Text) > maxPageText {
		page.Text = page.Text[:maxPageText] + "\n... (truncated)"
	}
	return page, nil
}

// Search queries DuckDuckGo's HTML endpoint and scrapes result links.
func (w *WebClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	target := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	doc, err := w.fetchHTML(ctx, target)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			r := SearchResult{
				Title: nodeText(n),
				URL:   attr(n, "href"),
			}
			if r.Title != "" && r.URL != "" {
				results = append(results, r)
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(results) > 0 {
			results[len(results)-1].Snippet = nodeText(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if len(results) >= 10 {
				return
			}
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func (w *WebClient) fetchHTML(ctx context.Context, target string) (*html.Node, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", target, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for %s", resp.StatusCode, target)
	}

	return html.Parse(io.LimitReader(resp.Body, maxPageBytes))
}

func hasClass(n *html.Node, class string) bool {
	for _, part := range strings.Fields(attr(n, "class")) {
		if part == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
