package service

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
	"github.com/cvlhofrederic-art/fixit-production-sub002/policy"
)

type verdict int

const (
	verdictRun verdict = iota
	verdictConfirm
	verdictReject
)

// step is one validated tool call of a turn.
type step struct {
	tool        string
	def         *tools.Definition
	params      tools.Params
	verdict     verdict
	detail      string
	description string
}

// dispatchResult collects what the execution of a plan produced.
type dispatchResult struct {
	outcomes      []domain.ActionOutcome
	pending       *domain.PendingDescriptor
	clientActions []domain.ClientAction
	readDetails   []string
	mutated       bool
}

func (r *dispatchResult) succeeded() int {
	n := 0
	for _, o := range r.outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

func (r *dispatchResult) record(tool string, res domain.ToolResult) {
	result := domain.ActionResultError
	if res.Success {
		result = domain.ActionResultSuccess
	}
	r.outcomes = append(r.outcomes, domain.ActionOutcome{Tool: tool, Result: result, Detail: res.Detail})
}

// planActions validates the model's proposals. The pending confirmation comes
// first, then the immediate actions in the order the model gave them. At most
// one step is left with verdictConfirm: a repeat of that same call is dropped,
// and a different gated call is rejected.
func (s *Service) planActions(ctx context.Context, env *domain.ActionEnvelope, tenantID string) []step {
	var plan []step
	var parked *step

	if pc := env.PendingConfirmation; pc != nil {
		st := s.validate(ctx, pc.Tool, pc.Params, tenantID)
		st.description = pc.Description
		switch {
		case st.verdict == verdictConfirm:
			parked = &st
			plan = append(plan, st)
		case st.verdict == verdictReject:
			plan = append(plan, st)
		default:
			s.logger.Debug("ignoring confirmation for a tool that does not need one", zap.String("tool", pc.Tool))
		}
	}

	for _, a := range env.Actions {
		st := s.validate(ctx, a.Tool, a.Params, tenantID)
		if st.verdict == verdictConfirm {
			if parked != nil {
				if sameCall(*parked, st) {
					s.logger.Debug("skipping duplicate confirmation", zap.String("tool", st.tool))
					continue
				}
				st.verdict = verdictReject
				st.detail = fmt.Sprintf("%s needs its own confirmation. Ask again once the pending action is handled.", a.Tool)
			} else {
				parked = &st
			}
		}
		plan = append(plan, st)
	}
	return plan
}

// sameCall reports whether a and b name the same tool with equal params.
func sameCall(a, b step) bool {
	return a.tool == b.tool && reflect.DeepEqual(a.params, b.params)
}

// validate resolves a proposed call against the registry and the policy.
func (s *Service) validate(ctx context.Context, name string, params map[string]any, tenantID string) step {
	st := step{tool: name, params: tools.Params(params)}
	if st.params == nil {
		st.params = tools.Params{}
	}
	def, ok := s.tools.Lookup(name)
	if !ok {
		st.verdict = verdictReject
		st.detail = fmt.Sprintf("Unknown tool: %s", name)
		return st
	}
	st.def = def

	decision, reason := s.gate(ctx, def, st.params, tenantID)
	switch decision {
	case policy.DecisionBlock:
		st.verdict = verdictReject
		st.detail = fmt.Sprintf("%s is not allowed", name)
		if reason != "" {
			st.detail += ": " + reason
		}
	case policy.DecisionConfirm:
		st.verdict = verdictConfirm
	default:
		st.verdict = verdictRun
	}
	return st
}

// gate asks the policy engine what to do with a call. Without an engine the
// static confirmation flag decides. A failing engine blocks the call.
func (s *Service) gate(ctx context.Context, def *tools.Definition, params tools.Params, tenantID string) (policy.Decision, string) {
	if s.policyEngine == nil {
		if def.RequiresConfirmation {
			return policy.DecisionConfirm, ""
		}
		return policy.DecisionExecute, ""
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Tool:                 def.Name,
		Params:               params,
		TenantID:             tenantID,
		Kind:                 string(def.Kind),
		RequiresConfirmation: def.RequiresConfirmation,
	})
	if err != nil {
		s.logger.Error("policy evaluation failed", zap.String("tool", def.Name), zap.Error(err))
		return policy.DecisionBlock, "policy check unavailable"
	}
	return decision, reason
}

// execute runs the plan in order.
func (s *Service) execute(ctx context.Context, plan []step, tenantID string) *dispatchResult {
	r := &dispatchResult{}
	for _, st := range plan {
		switch st.verdict {
		case verdictReject:
			toolExecutionsTotal.WithLabelValues(metricToolName(st), string(domain.ActionResultError)).Inc()
			r.record(st.tool, domain.ToolResult{Success: false, Detail: st.detail})
		case verdictConfirm:
			pending, err := s.mint(ctx, st, tenantID)
			if err != nil {
				s.logger.Error("failed to mint confirmation", zap.String("tool", st.tool), zap.Error(err))
				r.record(st.tool, domain.ToolResult{Success: false, Detail: "Could not prepare the confirmation. Please try again."})
				continue
			}
			r.pending = pending
		default:
			s.runStep(ctx, st, tenantID, r)
		}
	}
	if r.mutated {
		r.clientActions = append(r.clientActions, domain.ClientAction{Type: domain.ClientActionRefresh})
	}
	return r
}

func (s *Service) runStep(ctx context.Context, st step, tenantID string, r *dispatchResult) {
	res := s.runTool(ctx, st.def, st.params, tenantID)
	r.record(st.tool, res)
	if !res.Success {
		s.logger.Warn("tool failed", zap.String("tenant_id", tenantID), zap.String("tool", st.tool), zap.String("detail", res.Detail))
		return
	}

	switch st.def.Kind {
	case domain.ToolKindNavigation:
		if nav, ok := res.Data.(tools.NavigationData); ok {
			r.clientActions = append(r.clientActions, domain.ClientAction{
				Type:    domain.ClientActionNavigate,
				Payload: map[string]any{"page": nav.Page},
			})
		}
	case domain.ToolKindDocument:
		// Drafts only open a prefilled form client-side.
		if draft, ok := res.Data.(tools.DocumentDraft); ok {
			r.clientActions = append(r.clientActions, domain.ClientAction{Type: draft.Action, Payload: draft.Fields})
		}
	case domain.ToolKindRead:
		r.readDetails = append(r.readDetails, res.Detail)
	default:
		r.mutated = true
	}
}

// runTool executes def, turning a panic into a failure result.
func (s *Service) runTool(ctx context.Context, def *tools.Definition, params tools.Params, tenantID string) (result domain.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("tool executor panicked", zap.String("tool", def.Name), zap.Any("panic", rec))
			result = domain.ToolResult{Success: false, Detail: fmt.Sprintf("Could not complete %s right now. Please try again.", def.Name)}
		}
		outcome := domain.ActionResultSuccess
		if !result.Success {
			outcome = domain.ActionResultError
		}
		toolExecutionsTotal.WithLabelValues(def.Name, string(outcome)).Inc()
	}()
	return s.tools.Execute(ctx, def.Name, params, tenantID)
}

// mint parks st for a later confirmation. The description shown to the user
// is rendered from the tenant's own data when the tool knows how.
func (s *Service) mint(ctx context.Context, st step, tenantID string) (*domain.PendingDescriptor, error) {
	description := ""
	if st.def.Describe != nil {
		description = st.def.Describe(ctx, st.params, tenantID)
	}
	if description == "" {
		description = st.description
	}
	if description == "" {
		description = fmt.Sprintf("Run %s", st.tool)
	}

	p, err := s.confirmations.Create(ctx, st.tool, st.params, tenantID, description)
	if err != nil {
		return nil, err
	}
	confirmationsTotal.WithLabelValues(confirmMinted).Inc()
	return &domain.PendingDescriptor{
		Tool:         p.Tool,
		Params:       p.Params,
		Description:  p.Description,
		ConfirmToken: p.Token,
	}, nil
}

// mergeClientActions keeps the model's known client actions, with document
// payloads reduced to the form fields, then adds the ones produced by
// execution. A single refresh is kept, at the end.
func mergeClientActions(proposed []domain.ClientAction, r *dispatchResult) []domain.ClientAction {
	out := make([]domain.ClientAction, 0, len(proposed)+len(r.clientActions))
	refresh := false
	add := func(a domain.ClientAction) {
		if a.Type == domain.ClientActionRefresh {
			refresh = true
			return
		}
		out = append(out, a)
	}
	for _, a := range proposed {
		if !domain.KnownClientAction(a.Type) {
			continue
		}
		if a.Type == domain.ClientActionOpenQuoteForm || a.Type == domain.ClientActionOpenInvoiceForm {
			a.Payload = tools.WhitelistDocumentFields(tools.Params(a.Payload))
		}
		add(a)
	}
	for _, a := range r.clientActions {
		add(a)
	}
	if refresh {
		out = append(out, domain.ClientAction{Type: domain.ClientActionRefresh})
	}
	return out
}

func metricToolName(st step) string {
	if st.def == nil {
		return "unknown"
	}
	return st.def.Name
}
