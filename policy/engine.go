package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decision is what the policy wants done with a proposed tool call.
type Decision string

const (
	DecisionExecute Decision = "execute"
	DecisionConfirm Decision = "confirm"
	DecisionBlock   Decision = "block"
)

// Input describes one proposed tool call.
type Input struct {
	Tool                 string
	Params               map[string]any
	TenantID             string
	Kind                 string
	RequiresConfirmation bool
}

func (in Input) toMap() map[string]any {
	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	return map[string]any{
		"tool":                  in.Tool,
		"params":                params,
		"tenant_id":             in.TenantID,
		"kind":                  in.Kind,
		"requires_confirmation": in.RequiresConfirmation,
	}
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.fixy.confirmation.result"),
		rego.Module("confirmation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// LoadEngine reads the policy at path, or uses DefaultPolicy when path is empty.
func LoadEngine(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision for in and an optional reason. A policy can
// only make a call stricter: a tool flagged RequiresConfirmation is never
// executed directly, whatever the policy answers.
func (e *Engine) Evaluate(ctx context.Context, in Input) (Decision, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(in.toMap()))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	decision, reason := DecisionExecute, ""
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
		if !ok {
			return "", "", fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
		}
		d, _ := obj["decision"].(string)
		reason, _ = obj["reason"].(string)
		switch Decision(d) {
		case DecisionExecute, DecisionConfirm, DecisionBlock:
			decision = Decision(d)
		default:
			return "", "", fmt.Errorf("unknown policy decision %q", d)
		}
	}

	if decision == DecisionExecute && in.RequiresConfirmation {
		decision = DecisionConfirm
	}
	return decision, reason, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package fixy.confirmation

import rego.v1

default decision := "execute"

decision := "block" if {
	input.tenant_id == ""
}

decision := "confirm" if {
	input.tenant_id != ""
	needs_confirmation
}

needs_confirmation if input.requires_confirmation

# Closing every day or switching off every service empties the booking page.
needs_confirmation if {
	input.tool == "toggle_service_active"
	lower(sprintf("%v", [input.params.service_id])) == "all"
	lower(sprintf("%v", [input.params.active])) == "false"
}

needs_confirmation if {
	input.tool == "set_day_availability"
	lower(sprintf("%v", [input.params.day_of_week])) == "all"
	lower(sprintf("%v", [input.params.is_available])) == "false"
}

default reason := ""

reason := "tenant is required" if decision == "block"

reason := "tool requires confirmation" if {
	decision == "confirm"
	input.requires_confirmation
}

reason := "bulk deactivation requires confirmation" if {
	decision == "confirm"
	not input.requires_confirmation
}

result := {"decision": decision, "reason": reason}
`
