package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

const (
	toolWebSearch = "web_search"
	toolFinance   = "finance"
	toolGDP       = "gdp"
)

var (
	toolKeywords = []string{
		"current", "today", "latest", "now", "real-time", "stock", "price",
		"market", "gdp", "economic", "search", "find", "what is", "tell me about",
	}
	documentKeywords = []string{
		"document", "report", "in the document", "from the document",
		"kpi", "revenue", "profit", "npa", "crar", "car",
	}
	financeKeywords = []string{"stock", "price", "market", "finance"}
	gdpKeywords     = []string{"gdp", "economic", "country"}

	yearPattern   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	symbolPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

	countryCodes = map[string]string{
		"usa":            "US",
		"united states":  "US",
		"america":        "US",
		"india":          "IN",
		"indian":         "IN",
		"china":          "CN",
		"chinese":        "CN",
		"uk":             "GB",
		"united kingdom": "GB",
		"britain":        "GB",
	}
)

// QueryRouter classifies a query into a document, tool, or combined
// route. The LLM classification is the primary path; a keyword
// heuristic takes over whenever the model output is unusable, so
// routing always produces a decision.
type QueryRouter struct {
	generator ports.AnswerGenerator
	tools     ports.ToolRegistry
}

func NewQueryRouter(generator ports.AnswerGenerator, tools ports.ToolRegistry) *QueryRouter {
	return &QueryRouter{generator: generator, tools: tools}
}

func (r *QueryRouter) Route(ctx context.Context, query string, hasDocumentContext bool) domain.RoutingDecision {
	if decision, ok := r.routeWithModel(ctx, query, hasDocumentContext); ok {
		return r.normalize(query, decision)
	}
	return r.normalize(query, heuristicRoute(query, hasDocumentContext))
}

func (r *QueryRouter) routeWithModel(ctx context.Context, query string, hasDocumentContext bool) (domain.RoutingDecision, bool) {
	if r.generator == nil {
		return domain.RoutingDecision{}, false
	}

	raw, err := r.generator.GenerateJSONFromPrompt(ctx, buildRoutingPrompt(query, hasDocumentContext, r.toolList()))
	if err != nil {
		slog.Warn("router_model_unavailable", "error", err)
		return domain.RoutingDecision{}, false
	}

	var parsed struct {
		Route      string         `json:"route"`
		ToolName   string         `json:"tool_name"`
		ToolParams map[string]any `json:"tool_params"`
		Reasoning  string         `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		slog.Warn("router_model_bad_json", "error", err)
		return domain.RoutingDecision{}, false
	}

	route := domain.Route(strings.ToLower(strings.TrimSpace(parsed.Route)))
	if !route.Valid() {
		slog.Warn("router_model_bad_route", "route", parsed.Route)
		return domain.RoutingDecision{}, false
	}
	if (route == domain.RouteTool || route == domain.RouteBoth) && strings.TrimSpace(parsed.ToolName) == "" {
		slog.Warn("router_model_missing_tool", "route", parsed.Route)
		return domain.RoutingDecision{}, false
	}

	params := make(map[string]string, len(parsed.ToolParams))
	for k, v := range parsed.ToolParams {
		params[k] = fmt.Sprintf("%v", v)
	}

	return domain.RoutingDecision{
		Route:      route,
		ToolName:   strings.TrimSpace(parsed.ToolName),
		ToolParams: params,
		Reasoning:  parsed.Reasoning,
	}, true
}

// heuristicRoute mirrors the model's routing contract with fixed
// keyword rules. Strong indicators win outright, then keyword counts,
// then document context, then web search as the final default.
func heuristicRoute(query string, hasDocumentContext bool) domain.RoutingDecision {
	lower := strings.ToLower(query)

	if strings.Contains(lower, "gdp") {
		return toolDecision(toolGDP, "strong gdp indicator")
	}
	if strings.Contains(lower, "stock price") {
		return toolDecision(toolFinance, "strong stock price indicator")
	}

	toolScore := keywordScore(lower, toolKeywords)
	docScore := keywordScore(lower, documentKeywords)

	switch {
	case toolScore > docScore:
		return toolDecision(pickTool(lower), "tool keywords outweigh document keywords")
	case hasDocumentContext:
		if containsAny(lower, gdpKeywords[:2]) {
			return toolDecision(toolGDP, "economic data request overrides document context")
		}
		return domain.RoutingDecision{Route: domain.RouteDocument, Reasoning: "document context available"}
	default:
		return toolDecision(toolWebSearch, "no document context, defaulting to web search")
	}
}

func pickTool(lower string) string {
	if containsAny(lower, financeKeywords) {
		return toolFinance
	}
	if containsAny(lower, gdpKeywords) {
		return toolGDP
	}
	return toolWebSearch
}

func toolDecision(tool, reasoning string) domain.RoutingDecision {
	return domain.RoutingDecision{
		Route:      domain.RouteTool,
		ToolName:   tool,
		ToolParams: map[string]string{},
		Reasoning:  reasoning,
	}
}

func keywordScore(lower string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	return score
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// normalize fills tool parameters the model or heuristic left out so
// every decision is directly executable.
func (r *QueryRouter) normalize(query string, decision domain.RoutingDecision) domain.RoutingDecision {
	if decision.Route == domain.RouteDocument {
		return decision
	}
	if decision.ToolParams == nil {
		decision.ToolParams = map[string]string{}
	}

	switch decision.ToolName {
	case toolGDP:
		if decision.ToolParams["country"] == "" {
			decision.ToolParams["country"] = countryFromQuery(query)
		}
		if decision.ToolParams["year"] == "" {
			if year := yearPattern.FindString(query); year != "" {
				decision.ToolParams["year"] = year
			}
		}
	case toolFinance:
		if decision.ToolParams["symbol"] == "" {
			if symbol := symbolPattern.FindString(query); symbol != "" {
				decision.ToolParams["symbol"] = symbol
			}
		}
		if decision.ToolParams["query"] == "" {
			decision.ToolParams["query"] = query
		}
	case toolWebSearch:
		if strings.TrimSpace(decision.ToolParams["query"]) == "" {
			decision.ToolParams["query"] = query
		}
	}
	return decision
}

func countryFromQuery(query string) string {
	lower := strings.ToLower(query)
	for name, code := range countryCodes {
		if strings.Contains(lower, name) {
			return code
		}
	}
	return "US"
}

func (r *QueryRouter) toolList() string {
	if r.tools == nil {
		return ""
	}
	tools := r.tools.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, tools[name])
	}
	return b.String()
}

func buildRoutingPrompt(query string, hasDocumentContext bool, toolList string) string {
	contextNote := "No document is loaded."
	if hasDocumentContext {
		contextNote = "A financial document is loaded and searchable."
	}

	return fmt.Sprintf(`You are a query router for a financial document assistant.
%s

Available tools:
%s
Classify the user query. Return strict JSON with keys:
route ("document" | "tool" | "both"), tool_name (string, empty for document route),
tool_params (object), reasoning (string).
No markdown, no extra keys.

Query:
%s`, contextNote, toolList, query)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
