package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

const (
	defaultRetrievalTopK = 20
	defaultRerankTopK    = 5
)

// RetrievalPipeline is the two-stage retrieve-then-rerank flow: a wide
// vector search narrowed by a cross-encoder reranker.
type RetrievalPipeline struct {
	embedder ports.Embedder
	reranker ports.Reranker

	retrievalTopK int
	rerankTopK    int
}

func NewRetrievalPipeline(embedder ports.Embedder, reranker ports.Reranker, retrievalTopK, rerankTopK int) *RetrievalPipeline {
	if retrievalTopK <= 0 {
		retrievalTopK = defaultRetrievalTopK
	}
	if rerankTopK <= 0 {
		rerankTopK = defaultRerankTopK
	}
	if rerankTopK > retrievalTopK {
		rerankTopK = retrievalTopK
	}
	return &RetrievalPipeline{
		embedder:      embedder,
		reranker:      reranker,
		retrievalTopK: retrievalTopK,
		rerankTopK:    rerankTopK,
	}
}

func (p *RetrievalPipeline) RetrieveAndRerank(ctx context.Context, index ports.VectorIndex, query string) ([]domain.RetrievedPassage, error) {
	queryVector, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := index.Search(queryVector, p.retrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return p.rerank(ctx, query, candidates), nil
}

// rerank never fails the request: when the reranker is unavailable the
// vector-search order is kept with placeholder scores.
func (p *RetrievalPipeline) rerank(ctx context.Context, query string, candidates []domain.RetrievedPassage) []domain.RetrievedPassage {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Passage.Text
	}

	scores, err := p.reranker.Score(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		if err == nil {
			err = fmt.Errorf("score count mismatch: %d/%d", len(scores), len(candidates))
		}
		slog.Warn("rerank_degraded", "error", err, "candidates", len(candidates))
		return placeholderScores(candidates, p.rerankTopK)
	}

	reranked := make([]domain.RetrievedPassage, len(candidates))
	for i, c := range candidates {
		reranked[i] = domain.RetrievedPassage{Passage: c.Passage, Score: scores[i]}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if len(reranked) > p.rerankTopK {
		reranked = reranked[:p.rerankTopK]
	}
	return reranked
}

func placeholderScores(candidates []domain.RetrievedPassage, limit int) []domain.RetrievedPassage {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.RetrievedPassage, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RetrievedPassage{Passage: c.Passage, Score: 0}
	}
	return out
}
