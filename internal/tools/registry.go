// Package tools holds the closed catalog of operations the assistant may run
// on a tenant's behalf, and their executors.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Executor runs a tool for tenantID. Every outcome, including validation
// failures, is reported through the returned ToolResult.
type Executor func(ctx context.Context, params Params, tenantID string) domain.ToolResult

// Describer renders a human description of a pending call from server-side data.
type Describer func(ctx context.Context, params Params, tenantID string) string

// Definition is one catalog entry.
type Definition struct {
	Name                 string
	Description          string
	Params               string
	Kind                 domain.ToolKind
	RequiresConfirmation bool
	Execute              Executor
	Describe             Describer
}

// Info returns the client-facing description of the tool.
func (d *Definition) Info() domain.ToolInfo {
	return domain.ToolInfo{
		Name:                 d.Name,
		Description:          d.Description,
		Params:               d.Params,
		Kind:                 d.Kind,
		RequiresConfirmation: d.RequiresConfirmation,
	}
}

// Registry stores tool definitions keyed by tool name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Register adds a new tool definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Execute == nil {
		return fmt.Errorf("executor is required")
	}
	if def.Kind == "" {
		def.Kind = domain.ToolKindWrite
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.defs[def.Name] = &def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister adds a definition or panics.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.defs[name])
	}
	return out
}

// Catalog returns the client-facing description of every tool.
func (r *Registry) Catalog() []domain.ToolInfo {
	defs := r.Definitions()
	out := make([]domain.ToolInfo, 0, len(defs))
	for i := range defs {
		out = append(out, defs[i].Info())
	}
	return out
}

// Execute runs the named tool. An unknown name yields a failure result.
func (r *Registry) Execute(ctx context.Context, name string, params Params, tenantID string) domain.ToolResult {
	def, ok := r.Lookup(name)
	if !ok {
		return domain.ToolResult{Success: false, Detail: fmt.Sprintf("Unknown tool: %s", name)}
	}
	if tenantID == "" {
		return domain.ToolResult{Success: false, Detail: "Tenant is required."}
	}
	if params == nil {
		params = Params{}
	}
	return def.Execute(ctx, params, tenantID)
}
