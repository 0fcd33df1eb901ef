package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Citation references a retrieved passage by its one-based position in
// the context block shown to the generator.
type Citation struct {
	Index   int     `json:"index"`
	Preview string  `json:"preview"`
	Page    int     `json:"page"`
	Section string  `json:"section"`
	Score   float64 `json:"score"`
}

// ChatResult is the terminal state of one orchestrated question.
// History is the caller's history plus, on success, exactly one
// user/assistant turn pair.
type ChatResult struct {
	Answer    string             `json:"answer"`
	Citations []Citation         `json:"citations"`
	Route     Route              `json:"route,omitempty"`
	ToolUsed  string             `json:"tool_used,omitempty"`
	History   []ConversationTurn `json:"history"`
}
