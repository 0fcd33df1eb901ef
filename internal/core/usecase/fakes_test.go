package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

type fakeEmbedder struct {
	embedFn      func(ctx context.Context, texts []string) ([][]float32, error)
	embedQueryFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.embedQueryFn != nil {
		return f.embedQueryFn(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

type fakeReranker struct {
	scoreFn func(ctx context.Context, query string, texts []string) ([]float64, error)
}

func (f *fakeReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if f.scoreFn != nil {
		return f.scoreFn(ctx, query, texts)
	}
	scores := make([]float64, len(texts))
	return scores, nil
}

type fakeIndex struct {
	searchFn func(query []float32, k int) ([]domain.RetrievedPassage, error)
	addFn    func(passages []domain.Passage, vectors [][]float32) error
	saved    []string
	count    int
}

func (f *fakeIndex) Add(passages []domain.Passage, vectors [][]float32) error {
	if f.addFn != nil {
		return f.addFn(passages, vectors)
	}
	f.count += len(passages)
	return nil
}

func (f *fakeIndex) Search(query []float32, k int) ([]domain.RetrievedPassage, error) {
	if f.searchFn != nil {
		return f.searchFn(query, k)
	}
	return nil, nil
}

func (f *fakeIndex) Save(id string) error { f.saved = append(f.saved, id); return nil }
func (f *fakeIndex) Load(id string) error { return nil }
func (f *fakeIndex) Clear()               { f.count = 0 }
func (f *fakeIndex) Count() int           { return f.count }

type fakeIndexProvider struct {
	openFn func(ctx context.Context, documentID string) (ports.VectorIndex, error)
	newFn  func() ports.VectorIndex
}

func (f *fakeIndexProvider) Open(ctx context.Context, documentID string) (ports.VectorIndex, error) {
	if f.openFn != nil {
		return f.openFn(ctx, documentID)
	}
	return &fakeIndex{}, nil
}

func (f *fakeIndexProvider) New() ports.VectorIndex {
	if f.newFn != nil {
		return f.newFn()
	}
	return &fakeIndex{}
}

type fakeGenerator struct {
	answerFn func(ctx context.Context, question string, passages []domain.RetrievedPassage, history []domain.ConversationTurn) (string, error)
	promptFn func(ctx context.Context, prompt string) (string, error)
	jsonFn   func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question string, passages []domain.RetrievedPassage, history []domain.ConversationTurn) (string, error) {
	if f.answerFn != nil {
		return f.answerFn(ctx, question, passages, history)
	}
	return "", fmt.Errorf("no answer configured")
}

func (f *fakeGenerator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	if f.promptFn != nil {
		return f.promptFn(ctx, prompt)
	}
	return "", fmt.Errorf("no completion configured")
}

func (f *fakeGenerator) GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error) {
	if f.jsonFn != nil {
		return f.jsonFn(ctx, prompt)
	}
	return "", fmt.Errorf("no json completion configured")
}

type fakeToolRegistry struct {
	executeFn func(ctx context.Context, name string, params map[string]string) (string, error)
	tools     map[string]string
	calls     []string
}

func (f *fakeToolRegistry) ListTools() map[string]string {
	if f.tools != nil {
		return f.tools
	}
	return map[string]string{
		"web_search": "search the web",
		"finance":    "stock quotes",
		"gdp":        "country gdp",
	}
}

func (f *fakeToolRegistry) Execute(ctx context.Context, name string, params map[string]string) (string, error) {
	f.calls = append(f.calls, name)
	if f.executeFn != nil {
		return f.executeFn(ctx, name, params)
	}
	return fmt.Sprintf("output of %s", name), nil
}

type fakeDocumentRepo struct {
	docs     map[string]*domain.Document
	statuses []domain.DocumentStatus
	createFn func(ctx context.Context, doc *domain.Document) error
	updateFn func(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	countsFn func(ctx context.Context, id string, pages, passages int) error
	lastErr  string
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[string]*domain.Document{}}
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *domain.Document) error {
	if f.createFn != nil {
		return f.createFn(ctx, doc)
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return doc, nil
}

func (f *fakeDocumentRepo) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, status, errMessage)
	}
	f.statuses = append(f.statuses, status)
	f.lastErr = errMessage
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (f *fakeDocumentRepo) UpdateCounts(ctx context.Context, id string, pages, passages int) error {
	if f.countsFn != nil {
		return f.countsFn(ctx, id, pages, passages)
	}
	if doc, ok := f.docs[id]; ok {
		doc.PageCount = pages
		doc.PassageCount = passages
	}
	return nil
}

type fakeStorage struct {
	saveFn func(ctx context.Context, key string, data io.Reader) error
	keys   []string
}

func (f *fakeStorage) Save(ctx context.Context, key string, data io.Reader) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, key, data)
	}
	f.keys = append(f.keys, key)
	_, err := io.Copy(io.Discard, data)
	return err
}

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, domain.WrapError(domain.ErrNotFound, "open object", fmt.Errorf("key %s", key))
}

type fakeQueue struct {
	publishFn func(ctx context.Context, documentID string) error
	published []string
}

func (f *fakeQueue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, documentID)
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	return nil
}

type fakeExtractor struct {
	pages []domain.Page
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	return f.pages, f.err
}

type fakeChunker struct {
	chunkFn func(documentID string, pages []domain.Page) []domain.Passage
}

func (f *fakeChunker) Chunk(documentID string, pages []domain.Page) []domain.Passage {
	if f.chunkFn != nil {
		return f.chunkFn(documentID, pages)
	}
	passages := make([]domain.Passage, 0, len(pages))
	for i, page := range pages {
		passages = append(passages, domain.Passage{
			Text:        page.Text,
			DocumentID:  documentID,
			Page:        page.Number,
			ChunkIndex:  i,
			TotalChunks: len(pages),
		})
	}
	return passages
}

func passageFixture(n int) []domain.RetrievedPassage {
	passages := make([]domain.RetrievedPassage, n)
	for i := range passages {
		passages[i] = domain.RetrievedPassage{
			Passage: domain.Passage{
				Text:       fmt.Sprintf("passage %d", i+1),
				DocumentID: "doc-1",
				Page:       i + 1,
				Section:    "Financials",
				ChunkIndex: i,
			},
			Score: 1 - float64(i)*0.1,
		}
	}
	return passages
}
