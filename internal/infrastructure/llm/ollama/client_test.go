package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

func TestEmbedSendsBatchAndDecodesVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("path = %q, want /api/embed", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Fatalf("model = %q", req.Model)
		}
		if len(req.Input) != 2 {
			t.Fatalf("input = %d texts, want 2", len(req.Input))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 2 {
		t.Fatalf("unexpected vector shape: %d", len(vectors))
	}
	if vectors[1][0] != 0.3 {
		t.Fatalf("vectors[1][0] = %v", vectors[1][0])
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "g", "e", nil))
	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected nil, got %v", vectors)
	}
}

func TestGenerateAnswerPromptShape(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatal("streaming must be off")
		}
		prompt = req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  The revenue was 1,200 crore [Chunk 1].  "})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	passages := []domain.RetrievedPassage{
		{Passage: domain.Passage{Text: "Revenue rose to 1,200 crore.", Page: 3, Section: "Financial Highlights"}, Score: 0.91},
	}
	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}

	answer, err := generator.GenerateAnswer(context.Background(), "What was the revenue?", passages, history)
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}
	if answer != "The revenue was 1,200 crore [Chunk 1]." {
		t.Fatalf("answer not trimmed: %q", answer)
	}

	for _, want := range []string{
		"[Chunk 1] page=3 section=Financial Highlights score=0.910",
		"Revenue rose to 1,200 crore.",
		"reply exactly: Not available in the document.",
		"user: earlier question",
		"assistant: earlier answer",
		"What was the revenue?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateAnswerTruncatesHistory(t *testing.T) {
	history := make([]domain.ConversationTurn, 10)
	for i := range history {
		history[i] = domain.ConversationTurn{Role: domain.RoleUser, Content: "turn " + string(rune('0'+i))}
	}
	prompt := buildAnswerPrompt("q", nil, history)

	if strings.Contains(prompt, "turn 3") {
		t.Fatal("prompt must keep only the most recent turns")
	}
	if !strings.Contains(prompt, "turn 9") {
		t.Fatal("prompt must keep the latest turn")
	}
}

func TestGenerateJSONRequestsJSONFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["format"] != "json" {
			t.Fatalf("format = %v, want json", req["format"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": `{"route":"document"}`})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "g", "e", nil))
	raw, err := generator.GenerateJSONFromPrompt(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("GenerateJSONFromPrompt: %v", err)
	}
	if raw != `{"route":"document"}` {
		t.Fatalf("raw = %q", raw)
	}
}

func TestCallSurfacesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'missing' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "missing", "e", nil))
	_, err := generator.GenerateFromPrompt(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "model 'missing' not found") {
		t.Fatalf("error must carry the response body: %v", err)
	}
}

func TestCallMarksServerErrorsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "g", "e", nil))
	_, err := embedder.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("503 must surface as temporary, got %v", err)
	}
}
