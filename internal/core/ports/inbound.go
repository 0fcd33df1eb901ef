package ports

import (
	"context"
	"io"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// ChatService answers one question against a document and the caller's
// conversation history.
type ChatService interface {
	Chat(ctx context.Context, documentID, question string, history []domain.ConversationTurn) (*domain.ChatResult, error)
}

// KPIReportService renders a markdown KPI report for a processed document.
type KPIReportService interface {
	Report(ctx context.Context, documentID string) (string, error)
}
