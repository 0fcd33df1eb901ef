package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
	"github.com/finsightlabs/finsight/internal/observability/metrics"
)

type Router struct {
	service      string
	ingest       ports.DocumentIngestor
	reader       ports.DocumentReader
	chat         ports.ChatService
	kpi          ports.KPIReportService
	sessions     ports.SessionStore
	metrics      *metrics.HTTPServerMetrics
	historyLimit int
}

func NewRouter(
	service string,
	ingest ports.DocumentIngestor,
	reader ports.DocumentReader,
	chat ports.ChatService,
	kpi ports.KPIReportService,
	sessions ports.SessionStore,
	serverMetrics *metrics.HTTPServerMetrics,
	historyLimit int,
) *Router {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Router{
		service:      service,
		ingest:       ingest,
		reader:       reader,
		chat:         chat,
		kpi:          kpi,
		sessions:     sessions,
		metrics:      serverMetrics,
		historyLimit: historyLimit,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentSubtree)
	mux.HandleFunc("/v1/chat", rt.chatHandler)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id, ok := strings.CutSuffix(rest, "/kpi-report"); ok {
		rt.kpiReport(w, r, id)
		return
	}
	rt.getDocumentByID(w, r, rest)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) kpiReport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	report, err := rt.kpi.Report(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": id,
		"report":      report,
	})
}

func (rt *Router) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
		SessionID  string `json:"session_id"`
		Question   string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	start := time.Now()
	history := rt.loadHistory(r, req.SessionID)

	result, err := rt.chat.Chat(r.Context(), req.DocumentID, req.Question, history)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	rt.persistNewTurns(r, req.SessionID, history, result)
	rt.recordChatMetrics(result, req.DocumentID, start)

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": req.SessionID,
		"answer":     result.Answer,
		"citations":  result.Citations,
		"route":      result.Route,
		"tool_used":  result.ToolUsed,
	})
}

// loadHistory and persistNewTurns degrade to stateless chat when the
// session store misbehaves; the question still gets answered.
func (rt *Router) loadHistory(r *http.Request, sessionID string) []domain.ConversationTurn {
	if rt.sessions == nil {
		return nil
	}
	history, err := rt.sessions.RecentTurns(r.Context(), sessionID, rt.historyLimit)
	if err != nil {
		slog.Warn("session_history_unavailable",
			"request_id", requestIDFromContext(r.Context()),
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}
	return history
}

func (rt *Router) persistNewTurns(r *http.Request, sessionID string, history []domain.ConversationTurn, result *domain.ChatResult) {
	if rt.sessions == nil || len(result.History) <= len(history) {
		return
	}
	delta := result.History[len(history):]
	if err := rt.sessions.AppendTurns(r.Context(), sessionID, delta); err != nil {
		slog.Warn("session_append_failed",
			"request_id", requestIDFromContext(r.Context()),
			"session_id", sessionID,
			"error", err,
		)
	}
}

func (rt *Router) recordChatMetrics(result *domain.ChatResult, documentID string, start time.Time) {
	if rt.metrics == nil {
		return
	}
	status := "success"
	if result.Route == "" {
		status = "error"
	}
	rt.metrics.RecordChatRequest(rt.service, status, string(result.Route), result.ToolUsed, len(result.Citations), time.Since(start))
	if documentID == "" {
		rt.metrics.RecordNoContext(rt.service)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
