package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

func heuristicRouter() *QueryRouter {
	return NewQueryRouter(nil, &fakeToolRegistry{})
}

func TestRouteGDPQueryGoesToGDPTool(t *testing.T) {
	decision := heuristicRouter().Route(context.Background(), "What is the GDP of India in 2023?", true)

	if decision.Route != domain.RouteTool {
		t.Fatalf("route = %q, want tool", decision.Route)
	}
	if decision.ToolName != "gdp" {
		t.Fatalf("tool = %q, want gdp", decision.ToolName)
	}
	if decision.ToolParams["country"] != "IN" {
		t.Fatalf("country = %q, want IN", decision.ToolParams["country"])
	}
	if decision.ToolParams["year"] != "2023" {
		t.Fatalf("year = %q, want 2023", decision.ToolParams["year"])
	}
}

func TestRouteDocumentQuestionWithContext(t *testing.T) {
	decision := heuristicRouter().Route(context.Background(), "How did revenue grow according to the report?", true)

	if decision.Route != domain.RouteDocument {
		t.Fatalf("route = %q, want document", decision.Route)
	}
	if decision.ToolName != "" {
		t.Fatalf("document route must not carry a tool, got %q", decision.ToolName)
	}
}

func TestRouteStockPriceGoesToFinanceTool(t *testing.T) {
	decision := heuristicRouter().Route(context.Background(), "current stock price of AAPL", false)

	if decision.Route != domain.RouteTool || decision.ToolName != "finance" {
		t.Fatalf("got %q/%q, want tool/finance", decision.Route, decision.ToolName)
	}
	if decision.ToolParams["symbol"] != "AAPL" {
		t.Fatalf("symbol = %q, want AAPL", decision.ToolParams["symbol"])
	}
	if decision.ToolParams["query"] == "" {
		t.Fatal("finance route must carry the raw query")
	}
}

func TestRouteNoContextDefaultsToWebSearch(t *testing.T) {
	query := "how do glaciers form"
	decision := heuristicRouter().Route(context.Background(), query, false)

	if decision.Route != domain.RouteTool || decision.ToolName != "web_search" {
		t.Fatalf("got %q/%q, want tool/web_search", decision.Route, decision.ToolName)
	}
	if decision.ToolParams["query"] != query {
		t.Fatalf("query param = %q, want original query", decision.ToolParams["query"])
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	router := heuristicRouter()
	queries := []string{
		"What is the GDP of China?",
		"Summarize the risk section of the document",
		"latest market news",
	}
	for _, q := range queries {
		first := router.Route(context.Background(), q, true)
		for i := 0; i < 5; i++ {
			again := router.Route(context.Background(), q, true)
			if again.Route != first.Route || again.ToolName != first.ToolName {
				t.Fatalf("query %q: routing not stable: %+v vs %+v", q, first, again)
			}
		}
	}
}

func TestRouteUsesModelDecisionWhenValid(t *testing.T) {
	generator := &fakeGenerator{
		jsonFn: func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "gdp: country gdp") {
				t.Fatalf("prompt missing sorted tool list:\n%s", prompt)
			}
			return `{"route":"both","tool_name":"web_search","tool_params":{"query":"RBI repo rate"},"reasoning":"needs both"}`, nil
		},
	}
	router := NewQueryRouter(generator, &fakeToolRegistry{})

	decision := router.Route(context.Background(), "Compare the report numbers with the current RBI repo rate", true)
	if decision.Route != domain.RouteBoth {
		t.Fatalf("route = %q, want both", decision.Route)
	}
	if decision.ToolName != "web_search" {
		t.Fatalf("tool = %q, want web_search", decision.ToolName)
	}
	if decision.ToolParams["query"] != "RBI repo rate" {
		t.Fatalf("query param = %q", decision.ToolParams["query"])
	}
}

func TestRouteFallsBackOnModelGarbage(t *testing.T) {
	cases := map[string]func(ctx context.Context, prompt string) (string, error){
		"transport error": func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("connection refused")
		},
		"not json": func(ctx context.Context, prompt string) (string, error) {
			return "I think this needs the gdp tool", nil
		},
		"invalid route": func(ctx context.Context, prompt string) (string, error) {
			return `{"route":"maybe","tool_name":"gdp"}`, nil
		},
		"tool route without tool": func(ctx context.Context, prompt string) (string, error) {
			return `{"route":"tool","tool_name":""}`, nil
		},
	}

	for name, jsonFn := range cases {
		router := NewQueryRouter(&fakeGenerator{jsonFn: jsonFn}, &fakeToolRegistry{})
		decision := router.Route(context.Background(), "What is the GDP of the United States?", false)
		if decision.Route != domain.RouteTool || decision.ToolName != "gdp" {
			t.Fatalf("%s: fallback got %q/%q, want tool/gdp", name, decision.Route, decision.ToolName)
		}
		if decision.ToolParams["country"] != "US" {
			t.Fatalf("%s: country = %q, want US", name, decision.ToolParams["country"])
		}
	}
}

func TestRouteModelDecisionWrappedInProse(t *testing.T) {
	generator := &fakeGenerator{
		jsonFn: func(ctx context.Context, prompt string) (string, error) {
			return "Sure, here is the classification: {\"route\":\"document\"} Hope this helps!", nil
		},
	}
	router := NewQueryRouter(generator, &fakeToolRegistry{})

	decision := router.Route(context.Background(), "What does the MD&A section say?", true)
	if decision.Route != domain.RouteDocument {
		t.Fatalf("route = %q, want document", decision.Route)
	}
}

func TestCountryFromQuery(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"GDP of the United Kingdom", "GB"},
		{"chinese economy outlook", "CN"},
		{"Indian GDP growth", "IN"},
		{"gdp numbers please", "US"},
	}
	for _, tc := range cases {
		if got := countryFromQuery(tc.query); got != tc.want {
			t.Fatalf("countryFromQuery(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestNormalizeLeavesDocumentRouteUntouched(t *testing.T) {
	router := heuristicRouter()
	decision := router.normalize("some query", domain.RoutingDecision{Route: domain.RouteDocument})
	if decision.ToolParams != nil {
		t.Fatal("document route must not grow tool params")
	}
}
