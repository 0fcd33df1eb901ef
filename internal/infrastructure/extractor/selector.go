// Package extractor routes stored documents to the format-specific
// text extractors.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

type Selector struct {
	plaintext ports.TextExtractor
	pdf       ports.TextExtractor
	excel     ports.TextExtractor
}

func NewSelector(plaintext, pdf, excel ports.TextExtractor) *Selector {
	return &Selector{
		plaintext: plaintext,
		pdf:       pdf,
		excel:     excel,
	}
}

func (s *Selector) Extract(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	return s.pick(doc).Extract(ctx, doc)
}

func (s *Selector) pick(doc *domain.Document) ports.TextExtractor {
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return s.pdf
	case ".xlsx", ".xlsm":
		return s.excel
	}

	switch doc.MimeType {
	case "application/pdf":
		return s.pdf
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return s.excel
	}
	return s.plaintext
}
