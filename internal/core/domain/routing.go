package domain

type Route string

const (
	RouteDocument Route = "document"
	RouteTool     Route = "tool"
	RouteBoth     Route = "both"
)

func (r Route) Valid() bool {
	switch r {
	case RouteDocument, RouteTool, RouteBoth:
		return true
	default:
		return false
	}
}

// RoutingDecision is the classification of a user query. ToolName and
// ToolParams are empty for the pure document route.
type RoutingDecision struct {
	Route      Route             `json:"route"`
	ToolName   string            `json:"tool_name,omitempty"`
	ToolParams map[string]string `json:"tool_params,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
}
