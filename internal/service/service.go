// Package service implements the assistant turn and confirmation flows.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/adapter/llm"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/config"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/ratelimit"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
	"github.com/cvlhofrederic-art/fixit-production-sub002/policy"
)

// ErrInvalidRequest is returned for requests missing a tenant or a message.
var ErrInvalidRequest = errors.New("invalid request")

// ContextSource loads the tenant snapshot rendered into the prompt.
type ContextSource interface {
	Load(ctx context.Context, tenantID string) (*domain.TenantContext, error)
}

type Service struct {
	tools         *tools.Registry
	contexts      ContextSource
	limiter       *ratelimit.Limiter
	confirmations *confirmation.Manager
	llmClient     llm.LLMClient
	policyEngine  *policy.Engine
	validator     *EnvelopeValidator
	config        *config.Config
	logger        *zap.Logger
	now           func() time.Time
}

func New(registry *tools.Registry, contexts ContextSource, limiter *ratelimit.Limiter, confirmations *confirmation.Manager, llmClient llm.LLMClient, policyEngine *policy.Engine, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tools:         registry,
		contexts:      contexts,
		limiter:       limiter,
		confirmations: confirmations,
		llmClient:     llmClient,
		policyEngine:  policyEngine,
		validator:     MustEnvelopeValidator(),
		config:        cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Catalog returns the tool catalog.
func (s *Service) Catalog() []domain.ToolInfo {
	return s.tools.Catalog()
}

// RetryAfter is how long a throttled tenant should wait.
func (s *Service) RetryAfter() time.Duration {
	return s.limiter.Window()
}
