package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchFixture = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links">
    <div class="result__body links_main">
      <h2 class="result__title"><a class="result__a" href="https://example.com/rbi">RBI keeps repo rate unchanged at 6.5%</a></h2>
      <a class="result__snippet" href="https://example.com/rbi">The central bank held the <b>repo rate</b> steady for a seventh meeting.</a>
    </div>
  </div>
  <div class="result results_links">
    <div class="result__body links_main">
      <h2 class="result__title"><a class="result__a" href="https://example.com/markets">Markets rally after policy decision</a></h2>
      <a class="result__snippet" href="https://example.com/markets">Bank stocks led the gains.</a>
    </div>
  </div>
</div>
</body></html>`

func TestWebSearchParsesResults(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" {
			t.Fatalf("path = %q, want /html/", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	tool := NewWebSearchTool(server.URL, 100, nil)
	out, err := tool.Execute(context.Background(), map[string]string{"query": "rbi repo rate"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotQuery != "rbi repo rate" {
		t.Fatalf("query = %q", gotQuery)
	}
	for _, want := range []string{
		"1. RBI keeps repo rate unchanged at 6.5%",
		"The central bank held the repo rate steady for a seventh meeting.",
		"2. Markets rally after policy decision",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWebSearchLimitsResultCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		b.WriteString(`<div class="result__body"><a class="result__a">title</a><a class="result__snippet">snippet</a></div>`)
	}
	b.WriteString("</body></html>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(b.String()))
	}))
	defer server.Close()

	tool := NewWebSearchTool(server.URL, 100, nil)
	out, err := tool.Execute(context.Background(), map[string]string{"query": "anything"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Count(out, "title") != maxSearchResults {
		t.Fatalf("results = %d, want %d:\n%s", strings.Count(out, "title"), maxSearchResults, out)
	}
}

func TestWebSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><div class='no-results'>nothing</div></body></html>"))
	}))
	defer server.Close()

	tool := NewWebSearchTool(server.URL, 100, nil)
	out, err := tool.Execute(context.Background(), map[string]string{"query": "zxqy"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "No web results found for: zxqy" {
		t.Fatalf("output = %q", out)
	}
}

func TestWebSearchRequiresQuery(t *testing.T) {
	tool := NewWebSearchTool("http://127.0.0.1:1", 100, nil)
	if _, err := tool.Execute(context.Background(), map[string]string{}); err == nil {
		t.Fatal("expected error for missing query")
	}
}
