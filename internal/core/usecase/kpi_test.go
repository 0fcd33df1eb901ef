package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

func kpiProviderWithPassages(n int) *fakeIndexProvider {
	return &fakeIndexProvider{
		openFn: func(ctx context.Context, documentID string) (ports.VectorIndex, error) {
			return &fakeIndex{
				searchFn: func(query []float32, k int) ([]domain.RetrievedPassage, error) {
					return passageFixture(n), nil
				},
			}, nil
		},
	}
}

func TestKPIReportRendersExtractedMetrics(t *testing.T) {
	generator := &fakeGenerator{
		jsonFn: func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "[Chunk 1]") {
				t.Fatal("prompt must include numbered excerpts")
			}
			return `{"revenue":"1,200 crore","net_profit":"310 crore","gnpa":"2.1%","currency":"INR","period":"Q3 FY24"}`, nil
		},
	}
	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, &fakeReranker{}, 20, 5)
	uc := NewKPIReportUseCase(pipeline, generator, kpiProviderWithPassages(3))

	report, err := uc.Report(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	for _, want := range []string{
		"# KPI Report",
		"**Period:** Q3 FY24",
		"**Currency:** INR",
		"| Revenue | 1,200 crore |",
		"| Net Profit | 310 crore |",
		"| Gross NPA (GNPA) | 2.1% |",
		"| Return on Equity (ROE) | Not available |",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestKPIReportEmptyDocumentID(t *testing.T) {
	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, &fakeReranker{}, 20, 5)
	uc := NewKPIReportUseCase(pipeline, &fakeGenerator{}, &fakeIndexProvider{})

	_, err := uc.Report(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty document id")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestKPIReportNoPassages(t *testing.T) {
	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, &fakeReranker{}, 20, 5)
	uc := NewKPIReportUseCase(pipeline, &fakeGenerator{}, kpiProviderWithPassages(0))

	_, err := uc.Report(context.Background(), "doc-1")
	if err == nil {
		t.Fatal("expected error for document with no indexed passages")
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found kind, got %v", err)
	}
}

func TestKPIReportBadModelJSON(t *testing.T) {
	generator := &fakeGenerator{
		jsonFn: func(ctx context.Context, prompt string) (string, error) {
			return "these are not the metrics you are looking for", nil
		},
	}
	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, &fakeReranker{}, 20, 5)
	uc := NewKPIReportUseCase(pipeline, generator, kpiProviderWithPassages(2))

	if _, err := uc.Report(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected parse error for non-JSON model output")
	}
}

func TestKPIReportIndexOpenFailure(t *testing.T) {
	provider := &fakeIndexProvider{
		openFn: func(ctx context.Context, documentID string) (ports.VectorIndex, error) {
			return nil, fmt.Errorf("corrupt index files")
		},
	}
	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, &fakeReranker{}, 20, 5)
	uc := NewKPIReportUseCase(pipeline, &fakeGenerator{}, provider)

	if _, err := uc.Report(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected index open failure to propagate")
	}
}
