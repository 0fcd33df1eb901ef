package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/finsightlabs/finsight/internal/infrastructure/resilience"
)

const defaultQuoteURL = "https://query1.finance.yahoo.com"

// BFSI names that show up in report questions, mapped to NSE tickers.
var knownSymbols = map[string]string{
	"hdfc bank":  "HDFCBANK.NS",
	"hdfc":       "HDFCBANK.NS",
	"icici bank": "ICICIBANK.NS",
	"icici":      "ICICIBANK.NS",
	"state bank": "SBIN.NS",
	"sbi":        "SBIN.NS",
	"axis bank":  "AXISBANK.NS",
	"axis":       "AXISBANK.NS",
	"kotak":      "KOTAKBANK.NS",
}

type FinanceTool struct {
	baseURL string
	client  *toolHTTPClient
}

func NewFinanceTool(baseURL string, requestsPerSecond float64, executor *resilience.Executor) *FinanceTool {
	if baseURL == "" {
		baseURL = defaultQuoteURL
	}
	return &FinanceTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newToolHTTPClient("finance", requestsPerSecond, executor),
	}
}

func (t *FinanceTool) Name() string { return "finance" }

func (t *FinanceTool) Description() string {
	return "Get a current stock quote. Params: symbol (ticker), query (original question, used to resolve known company names)."
}

func (t *FinanceTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	symbol := resolveSymbol(params["symbol"], params["query"])
	if symbol == "" {
		return "No stock symbol could be determined from the query.", nil
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", t.baseURL, url.PathEscape(symbol))

	var response struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					Currency           string  `json:"currency"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					PreviousClose      float64 `json:"chartPreviousClose"`
				} `json:"meta"`
			} `json:"result"`
			Error *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := t.client.getJSON(ctx, endpoint, &response); err != nil {
		return "", fmt.Errorf("fetch quote: %w", err)
	}
	if response.Chart.Error != nil {
		return "", fmt.Errorf("quote error for %s: %s", symbol, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return "", fmt.Errorf("no quote data for %s", symbol)
	}

	meta := response.Chart.Result[0].Meta
	out := fmt.Sprintf("%s: %.2f %s", meta.Symbol, meta.RegularMarketPrice, meta.Currency)
	if meta.PreviousClose > 0 {
		change := (meta.RegularMarketPrice - meta.PreviousClose) / meta.PreviousClose * 100
		out = fmt.Sprintf("%s (%+.2f%% vs previous close)", out, change)
	}
	return out, nil
}

// resolveSymbol prefers a known company name in the query over a bare
// uppercase token the router guessed, since words like CEO or GDP also
// match the ticker shape.
func resolveSymbol(symbol, query string) string {
	lower := strings.ToLower(query)
	for name, ticker := range knownSymbols {
		if strings.Contains(lower, name) {
			return ticker
		}
	}
	return strings.TrimSpace(symbol)
}
