package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/adapter/llm"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/prompt"
)

// Soft failure replies.
const (
	RateLimitedReply = "You are sending messages too quickly. Please wait a minute and try again."
	UnavailableReply = "The assistant is temporarily unavailable. Please try again in a moment."
	MalformedReply   = "Sorry, I didn't understand that. Could you rephrase your request?"
)

// HandleTurn runs one assistant turn for req.TenantID. Soft failures
// (throttling, upstream errors, malformed model output) are reported in the
// returned envelope; an error is only returned for an invalid request.
func (s *Service) HandleTurn(ctx context.Context, req domain.TurnRequest) (*domain.TurnResponse, error) {
	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrInvalidRequest)
	}
	message := truncate(strings.TrimSpace(req.Message), s.config.MaxMessageChars)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	if !s.limiter.Allow(ctx, tenantID) {
		rateLimitedTotal.Inc()
		turnsTotal.WithLabelValues(outcomeRateLimited).Inc()
		s.logger.Info("turn rate limited", zap.String("tenant_id", tenantID))
		return softFailure(RateLimitedReply, domain.TurnStateRateLimited), nil
	}

	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	tc := s.loadContext(ctx, tenantID, req.Context)
	messages := make([]llm.ChatMessage, 0, s.config.HistoryWindow+2)
	messages = append(messages, llm.ChatMessage{Role: string(domain.ChatRoleSystem), Content: prompt.Build(*tc, s.tools.Catalog())})
	for _, m := range boundHistory(req.ConversationHistory, s.config.HistoryWindow, s.config.MaxMessageChars) {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(domain.ChatRoleUser), Content: message})

	start := time.Now()
	completion, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Messages:    messages,
		Temperature: s.config.LLMTemperature,
		MaxTokens:   s.config.LLMMaxTokens,
		JSONObject:  true,
	})
	latency := time.Since(start)
	if err != nil {
		turnsTotal.WithLabelValues(outcomeLLMError).Inc()
		s.logger.Warn("llm call failed",
			zap.String("tenant_id", tenantID),
			zap.Duration("llm_latency", latency),
			zap.Bool("circuit_open", errors.Is(err, llm.ErrCircuitOpen)),
			zap.Error(err))
		return softFailure(UnavailableReply, domain.TurnStateLLMInvoked), nil
	}

	env, err := s.validator.Parse(completion.Content)
	if err != nil {
		turnsTotal.WithLabelValues(outcomeMalformed).Inc()
		s.logger.Warn("model returned a malformed envelope",
			zap.String("tenant_id", tenantID),
			zap.String("model", completion.Model),
			zap.Error(err))
		s.logger.Debug("malformed completion", zap.String("content", completion.Content))
		return softFailure(MalformedReply, domain.TurnStateLLMInvoked), nil
	}

	plan := s.planActions(ctx, env, tenantID)
	result := s.execute(ctx, plan, tenantID)

	resp := &domain.TurnResponse{
		Success:             true,
		Response:            assembleReply(env.Response, result),
		ActionsExecuted:     result.outcomes,
		PendingConfirmation: result.pending,
		ClientActions:       mergeClientActions(env.ClientActions, result),
		State:               domain.TurnStateEnvelopeAssembled,
	}
	turnsTotal.WithLabelValues(outcomeSuccess).Inc()
	s.logger.Info("turn completed",
		zap.String("tenant_id", tenantID),
		zap.String("state", string(resp.State)),
		zap.Int("actions_succeeded", result.succeeded()),
		zap.Int("actions_failed", len(result.outcomes)-result.succeeded()),
		zap.Bool("confirmation_minted", result.pending != nil),
		zap.Duration("llm_latency", latency))
	return resp, nil
}

func softFailure(reply string, state domain.TurnState) *domain.TurnResponse {
	return &domain.TurnResponse{
		Success:         false,
		Response:        reply,
		ActionsExecuted: []domain.ActionOutcome{},
		ClientActions:   []domain.ClientAction{},
		State:           state,
	}
}

// loadContext reads the tenant snapshot from the store. The snapshot sent by
// the client is used only when the store cannot be read, and only for the prompt.
func (s *Service) loadContext(ctx context.Context, tenantID string, fallback *domain.TenantContext) *domain.TenantContext {
	tc, err := s.contexts.Load(ctx, tenantID)
	if err == nil && tc != nil {
		return tc
	}
	s.logger.Warn("failed to load tenant context", zap.String("tenant_id", tenantID), zap.Error(err))

	out := domain.TenantContext{}
	if fallback != nil {
		out = *fallback
	}
	out.TenantID = tenantID
	if out.Now.IsZero() {
		out.Now = s.now().In(s.config.Location())
	}
	return &out
}

// boundHistory keeps the last window user and assistant messages, each capped at maxChars.
func boundHistory(history []domain.ChatMessage, window, maxChars int) []domain.ChatMessage {
	kept := make([]domain.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != domain.ChatRoleUser && m.Role != domain.ChatRoleAssistant {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		kept = append(kept, domain.ChatMessage{Role: m.Role, Content: truncate(content, maxChars)})
	}
	if window >= 0 && len(kept) > window {
		kept = kept[len(kept)-window:]
	}
	return kept
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}
