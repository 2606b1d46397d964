package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
)

// Confirmation replies.
const (
	ExpiredDetail  = "This action was already handled or has expired."
	DeclinedDetail = "Cancelled. Nothing was changed."
)

// Confirm redeems a pending confirmation. The token is consumed before
// anything runs, and the tool runs for the tenant stored with the token.
// A token minted for another tenant yields confirmation.ErrUnauthorized.
func (s *Service) Confirm(ctx context.Context, req domain.ConfirmRequest) (*domain.ConfirmResponse, error) {
	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrInvalidRequest)
	}

	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	p, err := s.confirmations.Redeem(ctx, strings.TrimSpace(req.ConfirmToken), tenantID)
	switch {
	case errors.Is(err, confirmation.ErrNotFound):
		confirmationsTotal.WithLabelValues(confirmNotFound).Inc()
		return &domain.ConfirmResponse{Success: false, Detail: ExpiredDetail}, nil
	case errors.Is(err, confirmation.ErrUnauthorized):
		confirmationsTotal.WithLabelValues(confirmUnauthorized).Inc()
		s.logger.Warn("confirmation redeemed by another tenant", zap.String("tenant_id", tenantID))
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("failed to redeem confirmation: %w", err)
	}

	if !req.Confirmed {
		confirmationsTotal.WithLabelValues(confirmDeclined).Inc()
		s.logger.Info("confirmation declined", zap.String("tenant_id", p.TenantID), zap.String("tool", p.Tool))
		return &domain.ConfirmResponse{Success: true, Detail: DeclinedDetail, Tool: p.Tool}, nil
	}

	def, ok := s.tools.Lookup(p.Tool)
	if !ok {
		confirmationsTotal.WithLabelValues(confirmFailed).Inc()
		return &domain.ConfirmResponse{Success: false, Detail: fmt.Sprintf("Unknown tool: %s", p.Tool), Tool: p.Tool}, nil
	}

	res := s.runTool(ctx, def, tools.Params(p.Params), p.TenantID)
	outcome := confirmExecuted
	if !res.Success {
		outcome = confirmFailed
		s.logger.Warn("confirmed tool failed", zap.String("tenant_id", p.TenantID), zap.String("tool", p.Tool), zap.String("detail", res.Detail))
	}
	confirmationsTotal.WithLabelValues(outcome).Inc()
	s.logger.Info("confirmation redeemed", zap.String("tenant_id", p.TenantID), zap.String("tool", p.Tool), zap.Bool("success", res.Success))
	return &domain.ConfirmResponse{Success: res.Success, Detail: res.Detail, Tool: p.Tool}, nil
}
