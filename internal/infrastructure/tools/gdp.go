package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsightlabs/finsight/internal/infrastructure/resilience"
)

const defaultWorldBankURL = "https://api.worldbank.org"

// World Bank uses ISO alpha-3 codes in its country path.
var worldBankCountryCodes = map[string]string{
	"US": "USA",
	"IN": "IND",
	"CN": "CHN",
	"GB": "GBR",
}

type GDPTool struct {
	baseURL string
	client  *toolHTTPClient
}

func NewGDPTool(baseURL string, requestsPerSecond float64, executor *resilience.Executor) *GDPTool {
	if baseURL == "" {
		baseURL = defaultWorldBankURL
	}
	return &GDPTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newToolHTTPClient("gdp", requestsPerSecond, executor),
	}
}

func (t *GDPTool) Name() string { return "gdp" }

func (t *GDPTool) Description() string {
	return "Get GDP data for a country from the World Bank. Params: country (2-letter code), year (optional)."
}

func (t *GDPTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	country := strings.ToUpper(strings.TrimSpace(params["country"]))
	if country == "" {
		country = "US"
	}
	code, ok := worldBankCountryCodes[country]
	if !ok {
		code = country
	}
	year := strings.TrimSpace(params["year"])

	url := fmt.Sprintf("%s/v2/country/%s/indicator/NY.GDP.MKTP.CD?format=json&per_page=60", t.baseURL, code)

	// Response shape: [metadata, [{date, value, country{value}}, ...]].
	var response []any
	if err := t.client.getJSON(ctx, url, &response); err != nil {
		return "", fmt.Errorf("fetch gdp data: %w", err)
	}
	if len(response) < 2 {
		return "", fmt.Errorf("unexpected world bank response shape")
	}
	entries, ok := response[1].([]any)
	if !ok || len(entries) == 0 {
		return "", fmt.Errorf("no gdp data for country %s", country)
	}

	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		date, _ := entry["date"].(string)
		value, hasValue := entry["value"].(float64)
		if !hasValue {
			continue
		}
		if year != "" && date != year {
			continue
		}

		countryName := country
		if c, ok := entry["country"].(map[string]any); ok {
			if name, ok := c["value"].(string); ok && name != "" {
				countryName = name
			}
		}
		return fmt.Sprintf("GDP of %s in %s: %s USD (current prices, World Bank)", countryName, date, formatLargeNumber(value)), nil
	}

	if year != "" {
		return fmt.Sprintf("No GDP data available for %s in %s.", country, year), nil
	}
	return fmt.Sprintf("No GDP data available for %s.", country), nil
}

func formatLargeNumber(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2f trillion", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2f billion", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2f million", v/1e6)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
