// Package tools provides external data tools behind a uniform
// registry: live web search, World Bank GDP figures, and market quotes.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, params map[string]string) (string, error)
}

type Registry struct {
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name()] = tool
	}
	return &Registry{tools: byName}
}

func (r *Registry) ListTools() map[string]string {
	out := make(map[string]string, len(r.tools))
	for name, tool := range r.tools {
		out[name] = tool.Description()
	}
	return out
}

// Execute answers unknown tool names with a descriptive string rather
// than an error: the router may hallucinate a name and the
// orchestration surfaces whatever comes back as the answer.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found. Available tools: %s", name, strings.Join(r.names(), ", ")), nil
	}
	return tool.Execute(ctx, params)
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
