package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
	"github.com/finsightlabs/finsight/internal/core/ports"
)

// NoAnswerSentinel is returned verbatim when the document route has no
// usable context, so callers can distinguish "nothing found" from a
// generated answer.
const NoAnswerSentinel = "Not available in the document."

const toolSectionLabel = "\n\n**Additional Information from Tools:**\n"

type ChatState string

const (
	StateRouting        ChatState = "routing"
	StateDocumentSearch ChatState = "document_search"
	StateToolExecution  ChatState = "tool_execution"
	StateCombine        ChatState = "combine"
	StateError          ChatState = "error"
	StateDone           ChatState = "done"
)

// NextState is the transition function of the question orchestration.
// It is pure: the combined route visits document search first and
// defers tool execution, any failure moves to the error state, and
// both combine and error are terminal producers.
func NextState(current ChatState, route domain.Route, failed bool) ChatState {
	if failed {
		return StateError
	}
	switch current {
	case StateRouting:
		if route == domain.RouteTool {
			return StateToolExecution
		}
		return StateDocumentSearch
	case StateDocumentSearch:
		if route == domain.RouteBoth {
			return StateToolExecution
		}
		return StateCombine
	case StateToolExecution:
		return StateCombine
	default:
		return StateDone
	}
}

type ChatUseCase struct {
	router    *QueryRouter
	pipeline  *RetrievalPipeline
	generator ports.AnswerGenerator
	tools     ports.ToolRegistry
	indexes   ports.IndexProvider
}

func NewChatUseCase(
	router *QueryRouter,
	pipeline *RetrievalPipeline,
	generator ports.AnswerGenerator,
	tools ports.ToolRegistry,
	indexes ports.IndexProvider,
) *ChatUseCase {
	return &ChatUseCase{
		router:    router,
		pipeline:  pipeline,
		generator: generator,
		tools:     tools,
		indexes:   indexes,
	}
}

// Chat drives one question through the state machine. Stage failures
// inside the graph surface as an error answer with untouched history;
// a panic is logged here and returned as a real error, so the caller
// can tell a crashed pipeline from a degraded answer.
func (uc *ChatUseCase) Chat(ctx context.Context, documentID, question string, history []domain.ConversationTurn) (result *domain.ChatResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chat_panic", "panic", r, "document_id", documentID)
			result = nil
			err = fmt.Errorf("chat pipeline panic: %v", r)
		}
	}()

	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("empty question"))
	}

	var (
		decision   domain.RoutingDecision
		passages   []domain.RetrievedPassage
		docAnswer  string
		toolOutput string
		failure    error
	)

	state := StateRouting
	for state != StateDone {
		switch state {
		case StateRouting:
			decision = uc.router.Route(ctx, question, documentID != "")
			slog.Info("chat_routed", "route", decision.Route, "tool", decision.ToolName)
			state = NextState(state, decision.Route, false)

		case StateDocumentSearch:
			passages, docAnswer, failure = uc.documentSearch(ctx, documentID, question, history)
			state = NextState(state, decision.Route, failure != nil)

		case StateToolExecution:
			toolOutput = uc.executeTool(ctx, decision)
			state = NextState(state, decision.Route, false)

		case StateCombine:
			result = uc.combine(question, decision, passages, docAnswer, toolOutput, history)
			state = NextState(state, decision.Route, false)

		case StateError:
			result = errorResult(failure, history)
			state = NextState(state, decision.Route, false)
		}
	}

	return result, nil
}

func (uc *ChatUseCase) documentSearch(ctx context.Context, documentID, question string, history []domain.ConversationTurn) ([]domain.RetrievedPassage, string, error) {
	if documentID == "" {
		return nil, NoAnswerSentinel, nil
	}

	index, err := uc.indexes.Open(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			slog.Warn("chat_index_missing", "document_id", documentID)
			return nil, NoAnswerSentinel, nil
		}
		return nil, "", fmt.Errorf("open document index: %w", err)
	}

	refined := uc.refineQuery(ctx, question)
	passages, err := uc.pipeline.RetrieveAndRerank(ctx, index, refined)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		return nil, NoAnswerSentinel, nil
	}

	answer, err := uc.generator.GenerateAnswer(ctx, question, passages, history)
	if err != nil {
		return nil, "", fmt.Errorf("generate answer: %w", err)
	}
	return passages, answer, nil
}

// refineQuery rewrites the question for retrieval. The original is kept
// whenever refinement fails or collapses the query below half its
// length, which usually means the model dropped constraints.
func (uc *ChatUseCase) refineQuery(ctx context.Context, question string) string {
	refined, err := uc.generator.GenerateFromPrompt(ctx, buildRefinePrompt(question))
	if err != nil {
		slog.Warn("chat_refine_failed", "error", err)
		return question
	}
	refined = strings.TrimSpace(refined)
	if refined == "" || len(refined)*2 < len(question) {
		return question
	}
	return refined
}

func (uc *ChatUseCase) executeTool(ctx context.Context, decision domain.RoutingDecision) string {
	output, err := uc.tools.Execute(ctx, decision.ToolName, decision.ToolParams)
	if err != nil {
		slog.Warn("chat_tool_failed", "tool", decision.ToolName, "error", err)
		return fmt.Sprintf("Error executing tool: %v", err)
	}
	return output
}

// combine builds the terminal result and appends exactly one
// user/assistant turn pair to the caller's history.
func (uc *ChatUseCase) combine(
	question string,
	decision domain.RoutingDecision,
	passages []domain.RetrievedPassage,
	docAnswer, toolOutput string,
	history []domain.ConversationTurn,
) *domain.ChatResult {
	var answer string
	var citations []domain.Citation
	var toolUsed string

	switch decision.Route {
	case domain.RouteTool:
		answer = toolOutput
		toolUsed = decision.ToolName
	case domain.RouteBoth:
		answer = docAnswer
		if strings.TrimSpace(toolOutput) != "" {
			answer += toolSectionLabel + toolOutput
		}
		citations = ExtractCitations(docAnswer, passages)
		toolUsed = decision.ToolName
	default:
		answer = docAnswer
		citations = ExtractCitations(docAnswer, passages)
	}

	updated := make([]domain.ConversationTurn, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		domain.ConversationTurn{Role: domain.RoleUser, Content: question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer},
	)

	return &domain.ChatResult{
		Answer:    answer,
		Citations: citations,
		Route:     decision.Route,
		ToolUsed:  toolUsed,
		History:   updated,
	}
}

// errorResult leaves history untouched: failed exchanges must not
// pollute the context of later questions.
func errorResult(reason error, history []domain.ConversationTurn) *domain.ChatResult {
	return &domain.ChatResult{
		Answer:    fmt.Sprintf("Error: %v", reason),
		Citations: nil,
		History:   history,
	}
}

func buildRefinePrompt(question string) string {
	return fmt.Sprintf(`Rewrite the user question as a standalone search query for a financial document.
Keep every named entity, metric, and period. Return only the rewritten query.

Question:
%s`, question)
}
