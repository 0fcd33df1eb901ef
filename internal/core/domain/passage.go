package domain

// Passage is a chunk of document text with its provenance. ChunkIndex is
// zero-based and sequential across the whole document, TotalChunks is the
// document-wide count.
type Passage struct {
	Text        string `json:"text"`
	DocumentID  string `json:"document_id"`
	Page        int    `json:"page"`
	Section     string `json:"section"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// RetrievedPassage pairs a passage with the score of the stage that
// produced it: cosine similarity after vector search, reranker relevance
// after reranking.
type RetrievedPassage struct {
	Passage Passage `json:"passage"`
	Score   float64 `json:"score"`
}
