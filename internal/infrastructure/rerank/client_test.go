package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

func TestScoreRealignsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Fatalf("path = %q, want /rerank", r.URL.Path)
		}
		var req struct {
			Query string   `json:"query"`
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "npa trend" || len(req.Texts) != 3 {
			t.Fatalf("unexpected request: %+v", req)
		}
		// Ranked response: best match first, not input order.
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"index": 2, "score": 0.95},
			{"index": 0, "score": 0.40},
			{"index": 1, "score": 0.10},
		})
	}))
	defer server.Close()

	client := New(server.URL, nil)
	scores, err := client.Score(context.Background(), "npa trend", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := []float64{0.40, 0.10, 0.95}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("scores[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestScoreRejectsOutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"index": 5, "score": 0.9},
		})
	}))
	defer server.Close()

	client := New(server.URL, nil)
	if _, err := client.Score(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatal("expected error for out-of-range response index")
	}
}

func TestScoreEmptyTextsSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty texts")
	}))
	defer server.Close()

	client := New(server.URL, nil)
	scores, err := client.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores != nil {
		t.Fatalf("expected nil, got %v", scores)
	}
}

func TestScoreServerErrorIsTemporaryWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, nil)
	_, err := client.Score(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("503 must surface as temporary, got %v", err)
	}
	if !strings.Contains(err.Error(), "model loading") {
		t.Fatalf("error must carry the response body: %v", err)
	}
}

func TestScoreClientErrorIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "texts field required", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(server.URL, nil)
	_, err := client.Score(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("422 is a permanent error, got %v", err)
	}
}
