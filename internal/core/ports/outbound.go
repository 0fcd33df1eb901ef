package ports

import (
	"context"
	"io"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	UpdateCounts(ctx context.Context, id string, pages, passages int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts page-structured text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.Page, error)
}

// Chunker splits extracted pages into passages.
type Chunker interface {
	Chunk(documentID string, pages []domain.Page) []domain.Passage
}

// Embedder builds vectors for passages and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores query/passage pairs. Scores align with the input
// texts by position.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// VectorIndex is a per-document similarity index over passage vectors.
type VectorIndex interface {
	Add(passages []domain.Passage, vectors [][]float32) error
	Search(query []float32, k int) ([]domain.RetrievedPassage, error)
	Save(id string) error
	Load(id string) error
	Clear()
	Count() int
}

// IndexProvider opens persisted per-document indexes and creates fresh ones.
type IndexProvider interface {
	Open(ctx context.Context, documentID string) (VectorIndex, error)
	New() VectorIndex
}

// AnswerGenerator creates user-facing text and structured completions.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, passages []domain.RetrievedPassage, history []domain.ConversationTurn) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error)
}

// ToolRegistry exposes external data tools by name. Execute returns a
// descriptive string for unknown tool names instead of an error so the
// orchestration can surface it as an answer.
type ToolRegistry interface {
	ListTools() map[string]string
	Execute(ctx context.Context, name string, params map[string]string) (string, error)
}

// SessionStore persists chat history per session.
type SessionStore interface {
	AppendTurns(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error)
}
