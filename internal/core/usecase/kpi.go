package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

const kpiRetrievalQuery = "key performance indicators revenue net profit NPA provision coverage capital adequacy ratio"

// KPIReportUseCase extracts banking KPIs from an indexed document and
// renders them as a markdown report.
type KPIReportUseCase struct {
	pipeline  *RetrievalPipeline
	generator ports.AnswerGenerator
	indexes   ports.IndexProvider
}

func NewKPIReportUseCase(pipeline *RetrievalPipeline, generator ports.AnswerGenerator, indexes ports.IndexProvider) *KPIReportUseCase {
	return &KPIReportUseCase{
		pipeline:  pipeline,
		generator: generator,
		indexes:   indexes,
	}
}

func (uc *KPIReportUseCase) Report(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "kpi report", fmt.Errorf("empty document id"))
	}

	index, err := uc.indexes.Open(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("open document index: %w", err)
	}

	passages, err := uc.pipeline.RetrieveAndRerank(ctx, index, kpiRetrievalQuery)
	if err != nil {
		return "", fmt.Errorf("retrieve kpi passages: %w", err)
	}
	if len(passages) == 0 {
		return "", domain.WrapError(domain.ErrNotFound, "kpi report", fmt.Errorf("no indexed passages for document %s", documentID))
	}

	metrics, err := uc.extractMetrics(ctx, passages)
	if err != nil {
		return "", err
	}
	return renderKPIReport(metrics), nil
}

func (uc *KPIReportUseCase) extractMetrics(ctx context.Context, passages []domain.RetrievedPassage) (domain.KPIMetrics, error) {
	raw, err := uc.generator.GenerateJSONFromPrompt(ctx, buildKPIPrompt(passages))
	if err != nil {
		return domain.KPIMetrics{}, fmt.Errorf("extract kpi metrics: %w", err)
	}

	var metrics domain.KPIMetrics
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &metrics); err != nil {
		return domain.KPIMetrics{}, fmt.Errorf("parse kpi json: %w", err)
	}
	return metrics, nil
}

func buildKPIPrompt(passages []domain.RetrievedPassage) string {
	var context strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&context, "[Chunk %d] page=%d section=%s\n%s\n\n", i+1, p.Passage.Page, p.Passage.Section, p.Passage.Text)
	}

	return fmt.Sprintf(`Extract banking KPIs from the report excerpts below.
Return strict JSON with keys:
revenue, net_profit, roe, roa, gnpa, nnpa, pcr, crar, car,
revenue_growth_qoq, revenue_growth_yoy, currency, period.
All values are strings exactly as reported. Use "" for metrics not present.
No markdown, no extra keys.

Excerpts:
%s`, context.String())
}

func renderKPIReport(m domain.KPIMetrics) string {
	rows := []struct {
		label string
		value string
	}{
		{"Revenue", m.Revenue},
		{"Net Profit", m.NetProfit},
		{"Return on Equity (ROE)", m.ROE},
		{"Return on Assets (ROA)", m.ROA},
		{"Gross NPA (GNPA)", m.GNPA},
		{"Net NPA (NNPA)", m.NNPA},
		{"Provision Coverage Ratio (PCR)", m.PCR},
		{"Capital to Risk-weighted Assets Ratio (CRAR)", m.CRAR},
		{"Capital Adequacy Ratio (CAR)", m.CAR},
		{"Revenue Growth (QoQ)", m.RevenueGrowthQoQ},
		{"Revenue Growth (YoY)", m.RevenueGrowthYoY},
	}

	var b strings.Builder
	b.WriteString("# KPI Report\n\n")
	if m.Period != "" {
		fmt.Fprintf(&b, "**Period:** %s\n\n", m.Period)
	}
	if m.Currency != "" {
		fmt.Fprintf(&b, "**Currency:** %s\n\n", m.Currency)
	}
	b.WriteString("| Metric | Value |\n|---|---|\n")
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = "Not available"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", row.label, value)
	}
	return b.String()
}
