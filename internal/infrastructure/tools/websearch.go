package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/finsightlabs/finsight/internal/infrastructure/resilience"
)

const (
	defaultSearchURL = "https://html.duckduckgo.com"
	maxSearchResults = 5
)

type WebSearchTool struct {
	baseURL string
	client  *toolHTTPClient
}

func NewWebSearchTool(baseURL string, requestsPerSecond float64, executor *resilience.Executor) *WebSearchTool {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &WebSearchTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newToolHTTPClient("web_search", requestsPerSecond, executor),
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information. Params: query."
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	query := strings.TrimSpace(params["query"])
	if query == "" {
		return "", fmt.Errorf("web_search requires a query")
	}

	endpoint := fmt.Sprintf("%s/html/?q=%s", t.baseURL, url.QueryEscape(query))
	body, err := t.client.get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}

	results, err := parseSearchResults(body)
	if err != nil {
		return "", fmt.Errorf("parse search results: %w", err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for: %s", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, r.title, r.snippet)
	}
	return strings.TrimSpace(b.String()), nil
}

type searchResult struct {
	title   string
	snippet string
}

func parseSearchResults(body []byte) ([]searchResult, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var results []searchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxSearchResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result__body") {
			title := textOfClass(n, "result__a")
			snippet := textOfClass(n, "result__snippet")
			if title != "" {
				results = append(results, searchResult{title: title, snippet: snippet})
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return results, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textOfClass(root *html.Node, class string) string {
	var found *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			find(child)
		}
	}
	find(root)
	if found == nil {
		return ""
	}

	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(found)
	return strings.Join(strings.Fields(b.String()), " ")
}
