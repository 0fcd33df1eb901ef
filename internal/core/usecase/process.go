package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	indexes   ports.IndexProvider
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexes ports.IndexProvider,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		indexes:   indexes,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	pages, passages, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateCounts(ctx, documentID, pages, passages); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save page/passage counts: %w", err)
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return 0, 0, err
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return 0, 0, err
	}

	passages, err := uc.chunk(doc.ID, pages)
	if err != nil {
		return 0, 0, err
	}

	vectors, err := uc.embed(ctx, passages)
	if err != nil {
		return 0, 0, err
	}

	if err := uc.index(doc.ID, passages, vectors); err != nil {
		return 0, 0, err
	}

	return len(pages), len(passages), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	pages, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("no extractable text"))
	}
	return pages, nil
}

func (uc *ProcessDocumentUseCase) chunk(documentID string, pages []domain.Page) ([]domain.Passage, error) {
	passages := uc.chunker.Chunk(documentID, pages)
	if len(passages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero passages"))
	}
	return passages, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, passages []domain.Passage) ([][]float32, error) {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed passages",
			fmt.Errorf("vectors/passages mismatch: %d/%d", len(vectors), len(passages)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) index(documentID string, passages []domain.Passage, vectors [][]float32) error {
	idx := uc.indexes.New()
	if err := idx.Add(passages, vectors); err != nil {
		return fmt.Errorf("add passages to index: %w", err)
	}
	if err := idx.Save(documentID); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
